package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/core/service"
	"github.com/healthconnect/portal/internal/infrastructure/backend"
	"github.com/healthconnect/portal/internal/infrastructure/config"
	"github.com/healthconnect/portal/internal/infrastructure/tokenstore"
	"github.com/healthconnect/portal/internal/web"
	"github.com/healthconnect/portal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration failed")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Development(),
	})

	var store ports.TokenStore
	switch cfg.TokenStore {
	case config.StoreRedis:
		rdb, err := tokenstore.Connect(ctx, tokenstore.RedisConfig{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rdb.Close()
		store = tokenstore.NewRedisStore(rdb)
	default:
		store = tokenstore.NewFileStore(cfg.TokenFile)
	}

	client := backend.NewClient(cfg.APIBaseURL, store, log)
	session := service.NewSession(client, store, log)
	users := service.NewUserList(client, log)

	// Silent restore from the stored token, same as the browser app did
	// on mount.
	session.Start(ctx)
	if u := session.User(); u != nil {
		log.Info().Str("username", u.Username).Str("user_type", u.UserType).Msg("session restored")
	}

	e := web.NewRouter(web.RouterConfig{
		Session:       session,
		Client:        client,
		Store:         store,
		Users:         users,
		Backend:       client,
		SessionSecret: cfg.SessionSecret,
		SecureCookies: !cfg.Development(),
	})

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("backend", cfg.APIBaseURL).Msg("portal listening")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("portal stopped")
}
