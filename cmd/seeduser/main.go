// cmd/seeduser/main.go: Crea/actualiza el operador administrador.
// Uso: SEED_USERNAME=admin SEED_PASSWORD=secreto go run ./cmd/seeduser
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"micaja/internal/config"
	"micaja/internal/infra"
	"micaja/internal/model"

	"golang.org/x/crypto/bcrypt"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	username := envOr("SEED_USERNAME", "admin")
	password := envOr("SEED_PASSWORD", "admin1234")
	nombre := envOr("SEED_NOMBRE", "Admin")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatalf("bcrypt error: %v", err)
	}

	// NewDatabase runs migrations, so a fresh database works too.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO usuarios (id, username, nombre, password_hash, rol, activo, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, ?, true, now(), now())
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    nombre = EXCLUDED.nombre,
		    rol = EXCLUDED.rol,
		    activo = true,
		    updated_at = now()
	`, username, nombre, string(hash), model.RolAdmin)

	if result.Error != nil {
		log.Fatalf("insert error: %v", result.Error)
	}
	fmt.Printf("Usuario '%s' (%s) creado/actualizado\n", username, model.RolAdmin)
}
