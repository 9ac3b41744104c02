// Command tokengen issues an admin token for the synchronization endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
)

func main() {
	subject := flag.String("sub", "", "token subject, e.g. an operator's login")
	role := flag.String("role", string(constants.RoleOperator), "admin, operator or viewer")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET is not set")
	}
	if *subject == "" {
		log.Fatal("-sub is required")
	}

	token, err := auth.NewTokenService([]byte(secret)).Issue(*subject, constants.Role(*role), *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
}
