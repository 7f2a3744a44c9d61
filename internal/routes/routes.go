package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/handlers"
)

// SetupRoutes mounts the full API surface. The requireAuth middleware wraps
// every route that needs an authenticated member.
func SetupRoutes(r *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handlers.Register)
		r.Get("/verify/{token}", handlers.VerifyEmail)
		r.Post("/login", handlers.Login)
		r.Post("/refresh", handlers.Refresh)
		r.Post("/forgot-password", handlers.ForgotPassword)
		r.Post("/reset-password/{token}", handlers.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", handlers.Logout)
			r.Get("/me", handlers.GetMe)
		})
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", handlers.GetPosts)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", handlers.CreatePost)
			r.Get("/me", handlers.GetMyPosts)
			r.Put("/{id}", handlers.UpdatePost)
			r.Delete("/{id}", handlers.DeletePost)
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handlers.SendMessage)
		r.Get("/inbox", handlers.GetInbox)
		r.Get("/sent", handlers.GetSent)
		r.Put("/{id}", handlers.UpdateMessage)
		r.Delete("/{id}", handlers.DeleteMessage)
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", handlers.GetEvents)
		r.Get("/{id}", handlers.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", handlers.CreateEvent)
			r.Put("/{id}", handlers.UpdateEvent)
			r.Delete("/{id}", handlers.DeleteEvent)
			r.Post("/{id}/attend", handlers.AttendEvent)
		})
	})

	r.Route("/api/profiles", func(r chi.Router) {
		r.Get("/", handlers.GetProfiles)
		r.Get("/{userId}", handlers.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", handlers.UpsertProfile)
		})
	})

	r.Route("/api/voiceChats", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handlers.CreateVoiceChat)
		r.Get("/me", handlers.GetMyVoiceChats)
	})

	r.Route("/api/upload", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handlers.UploadFile)
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/history", handlers.LoadChatHistory)
	})

	// WebSocket authenticates inside the handler so the token can also come
	// from the query string.
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
