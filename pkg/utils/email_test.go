package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@x.com"))
	assert.NoError(t, ValidateEmail("  pastor@victors-assembly.org "))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
}

func TestNormalizeEmails(t *testing.T) {
	got := NormalizeEmails([]string{" Alice@X.com", "alice@x.com", "", "BOB@y.org"})
	assert.Equal(t, []string{"alice@x.com", "bob@y.org"}, got)
}
