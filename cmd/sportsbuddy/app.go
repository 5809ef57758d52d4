package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"sportsbuddy/config"
	"sportsbuddy/internal/adapters/auth"
	"sportsbuddy/internal/adapters/email"
	"sportsbuddy/internal/domain"
	"sportsbuddy/internal/repository/memory"
	"sportsbuddy/internal/repository/postgres"
	"sportsbuddy/internal/services"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	db     *sql.DB
	events domain.EventService
	auth   domain.AuthService
	authn  domain.Authenticator
}

// openApp builds the stores and services selected by cfg. Close releases the
// database when one was opened.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	tokens := auth.NewJWT(cfg.JWT.Secret)

	var (
		eventRepo domain.EventRepository
		userRepo  domain.UserRepository
	)
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		eventRepo = memory.NewEventRepository()
		userRepo = memory.NewUserRepository()
	default:
		db, err := postgres.Open(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		a.db = db
		eventRepo = postgres.NewEventRepository(db)
		userRepo = postgres.NewUserRepository(db)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.AWSInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	a.events = services.NewEventService(eventRepo, services.EventServiceConfig{
		DefaultMaxParticipants: cfg.Events.DefaultMaxParticipants,
		MaxParticipantsLimit:   cfg.Events.MaxParticipantsLimit,
		Timeout:                cfg.RequestTimeout,
	})
	a.auth = services.NewAuthService(userRepo, auth.NewBcryptHasher(cfg.JWT.BcryptCost), tokens, cfg.JWT.Expiry, emailService, logger)
	a.authn = services.NewAuthenticator(tokens, userRepo)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
