package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	"github.com/noah-isme/hr-onboarding-api/pkg/config"
)

// issue_token mints a local access token using the configured JWT secret.
// Example: go run ./scripts/issue_token -user emp-42 -role employee
func main() {
	var (
		userID string
		role   string
		email  string
		name   string
		ttl    time.Duration
	)

	flag.StringVar(&userID, "user", "", "User ID placed in the token")
	flag.StringVar(&role, "role", string(models.RoleEmployee), "hr or employee")
	flag.StringVar(&email, "email", "", "Optional email claim")
	flag.StringVar(&name, "name", "", "Optional display name claim")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to JWT_EXPIRATION")
	flag.Parse()

	if userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	userRole := models.UserRole(role)
	if userRole != models.RoleHR && userRole != models.RoleEmployee {
		log.Fatalf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if ttl <= 0 {
		ttl = cfg.JWT.Expiration
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(&models.User{ID: userID, Role: userRole, Email: email, Name: name})
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
