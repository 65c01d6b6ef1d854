package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"webformular/internal/config"
	"webformular/internal/database"
	"webformular/internal/domain/formtoken"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, &formtoken.Use{}); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	secret := cfg.FormTokenSecret
	if secret == "" {
		secret = cfg.JWTSecret
	}
	tokens, err := formtoken.NewService(formtoken.NewRepository(db), secret, cfg.FormTokenTTL, nil)
	if err != nil {
		log.Fatalf("form token service: %v", err)
	}

	n, err := tokens.Cleanup(context.Background())
	if err != nil {
		log.Fatalf("cleanup form_token_uses failed: %v", err)
	}
	log.Printf("token cleanup completed: form_token_uses=%d", n)
}
