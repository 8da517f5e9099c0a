package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/collecte"
	"github.com/cocollecte/cocal/internal/config"
	"github.com/cocollecte/cocal/internal/db"
	internalhttp "github.com/cocollecte/cocal/internal/http"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/mail"
	"github.com/cocollecte/cocal/internal/messagerie"
	"github.com/cocollecte/cocal/internal/service"
	"github.com/cocollecte/cocal/internal/utilisateur"
	"github.com/cocollecte/cocal/internal/vehicule"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api arrêtée sur erreur")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom, cfg.SMTPUser, cfg.SMTPPassword)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	resolver := identite.NewResolver(pool)

	utilisateurRepo := utilisateur.NewRepository(pool)
	utilisateurService := utilisateur.NewService(utilisateurRepo)
	vehiculeService := vehicule.NewService(vehicule.NewRepository(pool))
	collecteService := collecte.NewService(collecte.NewRepository(pool))
	messagerieService := messagerie.NewService(messagerie.NewRepository(pool))
	authService := service.NewAuthService(utilisateurRepo, resolver, redisClient, jwtManager,
		mailer, cfg.JWTRefreshTTL, cfg.ResetTokenTTL)

	handler := internalhttp.NewRouter(cfg, pool, redisClient, internalhttp.Deps{
		Auth:         authService,
		Utilisateurs: utilisateurService,
		Vehicules:    vehiculeService,
		Collectes:    collecteService,
		Messages:     messagerieService,
		Resolver:     resolver,
		JWT:          jwtManager,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API à l'écoute sur :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("arrêt en cours...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
