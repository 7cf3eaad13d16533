package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/prastut/wedding-jarvis-sub000/internal/broadcast"
	"github.com/prastut/wedding-jarvis-sub000/internal/config"
	"github.com/prastut/wedding-jarvis-sub000/internal/content"
	"github.com/prastut/wedding-jarvis-sub000/internal/conversation"
	"github.com/prastut/wedding-jarvis-sub000/internal/handler"
	"github.com/prastut/wedding-jarvis-sub000/internal/i18n"
	"github.com/prastut/wedding-jarvis-sub000/internal/logging"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/metrics"
	"github.com/prastut/wedding-jarvis-sub000/internal/server"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
	"github.com/prastut/wedding-jarvis-sub000/internal/whatsapp"
)

func main() {
	cfg, envLoaded, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if !envLoaded {
		log.Info().Msg("No .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Wedding bot stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Goodbye! 👋")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("transport", cfg.Transport).Bool("post_event", cfg.PostEventMode).Msg("🎉 Starting wedding bot")

	store, err := storage.NewStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	logs := storage.NewLogWriter(store, 256, logging.Component(log, "MessageLog"))
	defer logs.Close()

	catalog, err := content.Load(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	base, err := i18n.Match(cfg.BaseLanguage)
	if err != nil {
		return fmt.Errorf("invalid BASE_LANGUAGE: %w", err)
	}
	bundle := i18n.Default(base)
	machine := conversation.NewMachine(conversation.Config{
		PostEvent:    cfg.PostEventMode,
		BaseLanguage: base,
		CoupleNames:  cfg.CoupleNames,
		WeddingDate:  cfg.WeddingDate,
	}, bundle, catalog)

	m := metrics.New()

	var (
		sender message.Sender
		device *whatsapp.Service
	)
	switch cfg.Transport {
	case config.TransportDevice:
		device, err = whatsapp.NewService(ctx, whatsapp.Config{
			DataDir:            cfg.DataDir,
			DefaultCountryCode: cfg.DefaultCountryCode,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp service: %w", err)
		}
		sender = device
	default:
		sender = whatsapp.NewCloudClient(whatsapp.CloudConfig{
			Token:              cfg.WhatsAppToken,
			PhoneNumberID:      cfg.PhoneNumberID,
			APIBase:            cfg.APIBase,
			APIVersion:         cfg.APIVersion,
			Timeout:            cfg.SendTimeout,
			Retries:            cfg.SendRetries,
			DefaultCountryCode: cfg.DefaultCountryCode,
		}, &fasthttp.Client{Name: "wedding-bot"}, log)
	}

	h := handler.NewHandler(store, machine, bundle, sender, logs, m, log)

	dispatcher := broadcast.NewDispatcher(store, sender, cfg.BroadcastDelay, base, log)
	broadcasts := broadcast.NewService(store, dispatcher, m.BroadcastObserver(), log)
	defer broadcasts.Close()

	// the linked-device transport receives traffic over its own socket
	var sink whatsapp.EventSink = h
	if device != nil {
		device.SetEventSink(h)
		sink = nil

		log.Info().Msg("Connecting to WhatsApp...")
		if err := device.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer device.Disconnect()
		log.Info().Msg("✅ Connected to WhatsApp")
	}

	srv := server.New(server.Options{
		AdminToken:         cfg.AdminToken,
		VerifyToken:        cfg.VerifyToken,
		AppSecret:          cfg.AppSecret,
		DefaultCountryCode: cfg.DefaultCountryCode,
	}, store, broadcasts, sink, m, log)

	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is not set, the admin API is disabled")
	}

	if cfg.Console {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			newConsole(os.Stdin, os.Stdout, store, broadcasts).run(ctx)
			cancel()
		}()
	}
	return srv.Run(ctx, cfg.HTTPAddr)
}
