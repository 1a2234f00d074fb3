package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"asset-ledger-api/internal/auth"
	"asset-ledger-api/internal/config"
)

func main() {
	var (
		userID     = flag.Int64("user", 1, "User ID")
		role       = flag.String("role", "admin", "Role: admin, commander, logistics or unit_leader")
		locationID = flag.Int64("location", 0, "Home base ID (required for every role except admin)")
		expiryMins = flag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = flag.String("secret", "", "JWT secret (overrides JWT_SECRET env var)")
		issuer     = flag.String("issuer", "", "JWT issuer (overrides JWT_ISS env var)")
		audience   = flag.String("audience", "", "JWT audience (overrides JWT_AUD env var)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *secret != "" {
		cfg.JWTSecret = *secret
	}
	if *issuer != "" {
		cfg.JWTIssuer = *issuer
	}
	if *audience != "" {
		cfg.JWTAudience = *audience
	}

	var home *int64
	if *locationID > 0 {
		home = locationID
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Duration(*expiryMins)*time.Minute)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatalf("Invalid JWT configuration: %v", err)
	}

	token, err := jwtManager.GenerateToken(*userID, *role, home)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("JWT Token generated successfully!\n\n")
	fmt.Printf("User ID: %d\n", *userID)
	fmt.Printf("Role: %s\n", *role)
	if home != nil {
		fmt.Printf("Location ID: %d\n", *home)
	}
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("Issuer: %s\n", cfg.JWTIssuer)
	fmt.Printf("Audience: %s\n", cfg.JWTAudience)
	fmt.Printf("\nToken:\n%s\n\n", token)

	fmt.Printf("Usage example:\n")
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/inventory\n", token)
}
