// cmd/genjwt/main.go
//
// Dev utility: mints a signed player token against the configured key pair,
// for driving the API by hand.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/r1olo/ase-project/internal/auth"
)

func main() {
	playerID := flag.String("player", "", "player id to embed in the token (defaults to a fresh uuid)")
	flag.Parse()

	priv, pub := os.Getenv("JWT_PRIVATE_KEY_PATH"), os.Getenv("JWT_PUBLIC_KEY_PATH")
	if priv == "" || pub == "" {
		log.Fatal("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set")
	}
	if err := auth.InitFromPath(priv, pub); err != nil {
		log.Fatalf("failed to load jwt keys: %v", err)
	}

	id := *playerID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		log.Fatalf("player id must be a uuid: %v", err)
	}

	token, err := auth.CreateJWT(id)
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}
	fmt.Printf("player: %s\ntoken:  %s\n", id, token)
}
