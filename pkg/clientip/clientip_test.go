package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestRealClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	if got := RealClientIP(r); got != "203.0.113.7" {
		t.Fatalf("RemoteAddr: got %q", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := RealClientIP(r); got != "198.51.100.2" {
		t.Fatalf("X-Real-IP: got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "192.0.2.1, 198.51.100.2")
	if got := RealClientIP(r); got != "192.0.2.1" {
		t.Fatalf("X-Forwarded-For: got %q", got)
	}
}
