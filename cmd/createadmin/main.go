package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/app"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/logging"
	"github.com/jrsteele09/go-session-auth/passwords"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := config.Load(config.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	var (
		email    = flag.String("email", c.GetAdminEmail(), "Admin email (defaults to ADMIN_EMAIL)")
		password = flag.String("password", c.GetAdminPassword(), "Admin password (defaults to ADMIN_PASSWORD)")
		timeout  = flag.Duration("timeout", 30*time.Second, "Overall deadline")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal().Msg("missing credentials: provide -email and -password or ADMIN_EMAIL and ADMIN_PASSWORD")
	}
	if c.GetDatabaseURL() == "" {
		log.Fatal().Msg("DATABASE_URL is required; the in-memory store does not outlive this process")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	repo, closeRepo, err := app.OpenUsers(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("open user store")
	}
	defer closeRepo()

	hasher, err := passwords.New(c.GetPasswordHasher(), c.GetBcryptCost())
	if err != nil {
		log.Fatal().Err(err).Msg("password hasher")
	}

	created, err := auth.EnsureAdmin(ctx, repo, hasher, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}
	if !created {
		log.Info().Str("email", *email).Msg("user already exists, nothing to do")
		return
	}
	log.Info().Str("email", *email).Msg("admin user created")
}
