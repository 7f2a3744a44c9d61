package handlers

import (
	"github.com/MULLAZMUSH/victors-assembly-church/internal/config"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

// Package-level dependencies, wired once at startup from main.
var (
	tokenService   *services.TokenService
	tokenStore     services.TokenStore
	frontendURL    string
	allowedOrigins []string

	cloudinaryService *services.CloudinaryService
)

// Init wires the auth dependencies into the handlers package.
func Init(cfg *config.Config, tokens *services.TokenService, store services.TokenStore) {
	tokenService = tokens
	tokenStore = store
	frontendURL = cfg.FrontendURL
	allowedOrigins = cfg.AllowedOrigins
}

// InitCloudinaryService configures the upload backend.
func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}
