package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"regimath/backend/internal/api/handler"
	"regimath/backend/internal/chathub"
	"regimath/backend/internal/config"
	"regimath/backend/internal/events"
	"regimath/backend/internal/localization"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/session"
	"regimath/backend/internal/storage"
	"regimath/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "regimath-backend"})
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

// run wires the service and blocks until ctx is cancelled or a component
// fails. Everything opened here is closed before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	if cfg.Session.Secret == "" {
		return errors.New("SESSION_SECRET is not set")
	}

	db, err := storage.OpenDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage (%s): %w", cfg.Database.Driver, err)
	}
	defer storage.CloseDatabase(db)
	log.Info().Str("driver", cfg.Database.Driver).Msg("storage ready")

	history := storage.NewHistoryStore(db)
	ledger := storage.NewLedgerStore(db)

	var index storage.RoomIndex = storage.NewScanRoomIndex(history)
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Address, err)
		}
		index = storage.NewRedisRoomIndex(rdb)
		log.Info().Msg("conversation index: redis")
	}

	text, err := localization.New(cfg.Server.Locale)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	hub := chathub.NewManagerService(history, index, text)

	var provider payment.Provider
	if cfg.Payments.AccessToken != "" {
		mp, err := payment.NewMercadoPago(cfg.Payments.AccessToken, cfg.Payments.Sandbox)
		if err != nil {
			return fmt.Errorf("configure payment provider: %w", err)
		}
		provider = mp
	} else {
		log.Warn().Msg("MP_ACCESS_TOKEN not set, payments disabled")
	}
	hub.SetPaymentRequester(payment.NewService(provider, ledger, cfg.Server.SiteURL))

	relay := payment.NewRelay(provider, ledger, hub)
	relay.UnknownPayer = text.GetString(localization.PayerUnknown)

	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("amqp unavailable, payment events disabled")
		} else {
			defer publisher.Close()
			relay.Events = publisher
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Telegram.BotToken != "" {
		alerts, bot, err := telegram.NewAlertService(cfg.Telegram.BotToken, cfg.Telegram.OpsChatID, ledger)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, operator alerts disabled")
		} else {
			relay.Alerts = alerts
			g.Go(func() error {
				alerts.Run(gctx, bot)
				return nil
			})
		}
	}

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log))
	handler.NewHandler(hub, session.NewCodec(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.TTL), relay, history, index, cfg.Server.SiteURL).
		RegisterRoutes(r)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
