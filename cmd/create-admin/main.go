package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/database"
	"github.com/codearena/codearena-backend/internal/logger"
	"github.com/codearena/codearena-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminRepo := repository.NewAdminRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Staff Account ===")

	// Username
	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	// Full name
	fmt.Print("Enter Full Name: ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fmt.Println("Error: Full name is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// Role
	fmt.Print("Enter Role Name (default super_admin): ")
	roleName, _ := reader.ReadString('\n')
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		roleName = "super_admin"
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	taken, err := adminRepo.UsernameExists(ctx, username)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check username")
	}
	if taken {
		fmt.Println("Error: Username is already taken")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	id, err := adminRepo.Create(ctx, username, fullName, string(hashedPassword), roleName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create staff account (does the role exist?)")
	}

	fmt.Printf("\nSuccess! Staff account '%s' created with ID: %d\n", username, id)
}
