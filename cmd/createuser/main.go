// Command createuser provisions a single user row, mirroring
// original_source/scripts/create_user.py.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/config"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/passwordhash"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	username := flag.String("username", "", "username for the new user (required)")
	password := flag.String("password", "", "password for the new user (required)")
	scopes := flag.String("scopes", "*", "scopes string to assign")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	db := store.New(pool)
	hasher := passwordhash.New(cfg.PasswordHashIterations)

	hashed, err := hasher.Hash(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	scopesCopy := *scopes
	created, err := db.CreateUser(ctx, &store.User{
		Username: *username,
		Password: hashed,
		IsActive: true,
		Token:    uuid.NewString(),
		Scopes:   &scopesCopy,
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}

	log.Printf("created user %q (id=%d, token=%s)", created.Username, created.ID, created.Token)
}
