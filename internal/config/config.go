package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings loaded from the environment.
type Config struct {
	// JWTSecret signs rejoin credentials and physical-task scan tokens.
	JWTSecret string
	// AllowedOrigins restricts WebSocket upgrades; "*" allows everything.
	AllowedOrigins []string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	// .env is optional; deployed instances set real env vars.
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-key"
	}

	origins := []string{"*"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		JWTSecret:      secret,
		AllowedOrigins: origins,
	}
}
