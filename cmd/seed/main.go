package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/joho/godotenv"

	"webformular/internal/config"
	"webformular/internal/database"
	"webformular/internal/domain/formtoken"
	"webformular/internal/domain/submission"
)

var demo = []struct {
	first, last, email, message, attachment string
}{
	{"Jan", "Novák", "jan@example.com", "Ahoj, mám dotaz k vaší nabídce.", ""},
	{"Eva", "Dvořáková", "eva.dvorakova@example.com", "Dobrý den,\nposílám životopis.\n\nEva", "/static/uploads/demo/cv.pdf"},
	{"Petr", "Svoboda", "petr@corp.test", "Can you call me back tomorrow?", ""},
	{"Anna", "Černá", "anna.cerna@example.org", "Message with \"quotes\", commas, and\nline breaks.", ""},
	{"Tomáš", "Procházka", "tomas@example.net", "Díky za rychlou odpověď!", ""},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, &submission.Submission{}, &formtoken.Use{}); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM form_token_uses")
	db.Exec("DELETE FROM submissions")

	repo := submission.NewRepository(db)
	ctx := context.Background()
	start := time.Now().UTC().Add(-time.Duration(len(demo)) * time.Hour)

	for i, d := range demo {
		s := &submission.Submission{
			FirstName: d.first,
			LastName:  d.last,
			Email:     d.email,
			Message:   d.message,
			CreatedAt: start.Add(time.Duration(i) * time.Hour),
		}
		if d.attachment != "" {
			s.AttachmentURL = sql.NullString{String: d.attachment, Valid: true}
		}
		if err := repo.Create(ctx, s); err != nil {
			log.Fatalf("create submission %d: %v", i+1, err)
		}
		log.Printf("Submission created: #%d %s %s <%s>", s.ID, s.FirstName, s.LastName, s.Email)
	}

	log.Printf("Seed completed: %d submissions", len(demo))
}
