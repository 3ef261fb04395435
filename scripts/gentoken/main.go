// Generates a JWT for exercising authenticated endpoints locally.
//
// Usage: go run scripts/gentoken/main.go [email] [display name]
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"codeberg.org/beeline/server/internal/auth"
)

func main() {
	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	email := "test@example.com"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}

	displayName := "Test User"
	if len(os.Args) > 2 {
		displayName = os.Args[2]
	}

	userID := "test:" + uuid.NewString()

	token, err := auth.GenerateJWT(userID, email, displayName, "")
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "\nuser_id: %s\nemail:   %s\nname:    %s\n", userID, email, displayName)
}
