// Command token mints an access token signed with AUTH_JWT_SECRET. It is
// meant for local development and scripted administration; production
// tokens come from the admin login service.
//
// Flags:
//
//	--user  subject UUID (default: random)
//	--role  admin | user (default: admin)
//	--ttl   token lifetime (default: auth.token_ttl)
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/auth"
	"github.com/heartmarshall/estate-backend/internal/config"
)

func main() {
	userFlag := flag.String("user", "", "subject UUID (default: random)")
	roleFlag := flag.String("role", auth.RoleAdmin, "admin or user")
	ttlFlag := flag.Duration("ttl", 0, "token lifetime (default: auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *roleFlag != auth.RoleAdmin && *roleFlag != auth.RoleUser {
		log.Fatalf("unknown role %q", *roleFlag)
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("parse user id: %v", err)
		}
	}

	ttl := cfg.Auth.TokenTTL
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, ttl).GenerateAccessToken(userID, *roleFlag)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
