// Command devtoken mints a bearer token for local testing against the chat backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"chatproxy-backend/internal/middleware"
)

func main() {
	godotenv.Load()

	userID := flag.String("user", "", "user id to embed in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: JWT_SECRET=... devtoken -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	token, err := middleware.NewJWTAuth(secret).GenerateAccessToken(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
