// Command populate seeds a development database with an admin user and two
// tenants, mirroring original_source/scripts/populate.py.
package main

import (
	"context"
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

	hashed, err := hasher.Hash("admin")
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	scopes := "*"
	admin, err := db.CreateUser(ctx, &store.User{
		Username: "admin",
		Password: hashed,
		IsActive: true,
		Token:    uuid.NewString(),
		Scopes:   &scopes,
	})
	if err != nil {
		log.Fatalf("create admin user: %v", err)
	}

	tenant1 := &store.Tenant{ID: "83e06ea4-e7ce-46f1-8bb9-d9bc9ba11f1f", Slug: "default"}
	tenant2 := &store.Tenant{ID: "82a6339c-7e31-425e-b489-ecf56da49d71", Slug: "another"}
	if err := db.CreateTenant(ctx, tenant1); err != nil {
		log.Fatalf("create tenant %s: %v", tenant1.Slug, err)
	}
	if err := db.CreateTenant(ctx, tenant2); err != nil {
		log.Fatalf("create tenant %s: %v", tenant2.Slug, err)
	}

	if err := db.AddUserTenant(ctx, admin.ID, tenant1.ID); err != nil {
		log.Fatalf("link admin to %s: %v", tenant1.Slug, err)
	}
	if err := db.AddUserTenant(ctx, admin.ID, tenant2.ID); err != nil {
		log.Fatalf("link admin to %s: %v", tenant2.Slug, err)
	}

	log.Printf("seeded admin user (id=%d, token=%s) and tenants %s, %s",
		admin.ID, admin.Token, tenant1.Slug, tenant2.Slug)
}
