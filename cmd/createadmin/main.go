package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/config"
	"github.com/GTDGit/book_api/internal/database"
	"github.com/GTDGit/book_api/internal/repository"
	"github.com/GTDGit/book_api/internal/service"
)

// createadmin seeds a dashboard operator account.
func main() {
	email := flag.String("email", "", "operator email")
	password := flag.String("password", "", "operator password")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -email ops@example.com -password secret [-name Ops]")
		os.Exit(2)
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := service.NewAdminAuthService(repository.NewAdminUserRepository(db))
	if err := svc.CreateAdmin(ctx, *email, *password, *name); err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("failed to create admin")
	}
	log.Info().Str("email", *email).Msg("admin created")
}
