package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/database"
	"github.com/codearena/mcq-backend/internal/logger"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/codearena/mcq-backend/internal/service"
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

	// ─── Initialize Service ────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	// Username
	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
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

	// Admin flag
	fmt.Print("Admin user? (y/N): ")
	adminStr, _ := reader.ReadString('\n')
	isAdmin := strings.EqualFold(strings.TrimSpace(adminStr), "y")

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Create(ctx, username, password, isAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' created with ID: %d (admin: %t)\n", user.Username, user.ID, user.IsAdmin)
}
