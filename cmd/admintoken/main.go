// Command admintoken prints a bearer token for the admin pages. The host
// application that owns user accounts runs it (or the same signing code) and
// hands the token to the browser as the admin_token cookie.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"webformular/internal/config"
	jwtsvc "webformular/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("subject", "admin", "token subject (admin user id or name)")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to ADMIN_TOKEN_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lifetime := cfg.AdminTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := jwtsvc.New(cfg.JWTSecret, lifetime).GenerateToken(*subject, jwtsvc.RoleAdmin)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
	log.Printf("admin token for %q valid until %s", *subject, time.Now().Add(lifetime).UTC().Format(time.RFC3339))
}
