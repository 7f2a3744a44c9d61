package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/config"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/handlers"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/routes"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration and fail fast on anything unusable
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Log connection attempt (without showing password)
	log.Printf("Connecting to MongoDB...")
	log.Printf("MongoDB URI: %s", maskURI(cfg.MongoURI))
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer database.Disconnect()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer database.DisconnectRedis()

	// Ensure MongoDB indexes (unique emails, token TTL, chat history)
	if err := services.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Initialize Cloudinary service
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	// Wire the auth stack: JWT issuer + Mongo-backed token store
	tokenService := services.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	tokenStore := services.NewMongoTokenStore()
	handlers.Init(cfg, tokenService, tokenStore)

	// Start the Redis chat subscriber that fans room events out to local
	// WebSocket connections
	services.StartChatSubscriber(context.Background())

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-auth-token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.AuthRateLimit)

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, middleware.RequireAuth(tokenService, tokenStore))

	log.Printf("🚀 Victors Assembly backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// maskURI hides the password portion of a connection string for logging.
func maskURI(uri string) string {
	if !strings.Contains(uri, "@") {
		return uri
	}
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	credsEnd := strings.LastIndex(uri, "@")
	creds := uri[schemeEnd+3 : credsEnd]
	if i := strings.Index(creds, ":"); i >= 0 {
		creds = creds[:i] + ":***"
	}
	return uri[:schemeEnd+3] + creds + uri[credsEnd:]
}
