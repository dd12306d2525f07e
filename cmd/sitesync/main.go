package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oladoye/sitesync/pkg/chat"
	"github.com/oladoye/sitesync/pkg/classify"
	"github.com/oladoye/sitesync/pkg/config"
	"github.com/oladoye/sitesync/pkg/handler"
	"github.com/oladoye/sitesync/pkg/notify"
	"github.com/oladoye/sitesync/pkg/source"
	"github.com/oladoye/sitesync/pkg/store"
	syncengine "github.com/oladoye/sitesync/pkg/sync"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"SITESYNC_CONFIG_PATH"`
	Debug      bool   `long:"debug"`
	NoBanner   bool   `long:"no-banner"`
}

const banner = `
     _ _
 ___(_) |_ ___  ___ _   _ _ __   ___
/ __| | __/ _ \/ __| | | | '_ \ / __|
\__ \ | ||  __/\__ \ |_| | | | | (__
|___/_|\__\___||___/\__, |_| |_|\___|
                    |___/
`

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if !opts.NoBanner {
		log.Info(banner)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running sitesync")

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	storage, err := store.NewJSONStore(cfg.Server.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to open data directory")
	}

	engine := syncengine.New(storage, classify.NewDefault())

	if cfg.Tokens.YouTube != "" {
		yt, err := source.NewYouTube(cfg.Tokens.YouTube)
		if err != nil {
			log.WithError(err).Fatal("failed to create youtube client")
		}

		engine.Register("youtube", yt)
	} else {
		log.Warn("youtube token is not set, video polling disabled")
	}

	var chatSvc handler.ChatService
	if cfg.Tokens.GoogleAI != "" {
		gemini, err := chat.NewGemini(cfg.Tokens.GoogleAI, cfg.Chat.Model)
		if err != nil {
			log.WithError(err).Fatal("failed to create chat client")
		}

		chatSvc = gemini
	} else {
		log.Warn("google AI token is not set, chat disabled")
	}

	var relay handler.Notifier
	if cfg.Tokens.TelegramBot != "" && cfg.Contact.TelegramChatID != "" {
		telegram, err := notify.NewTelegram(cfg.Tokens.TelegramBot, cfg.Contact.TelegramChatID)
		if err != nil {
			log.WithError(err).Fatal("failed to create telegram client")
		}

		relay = telegram
	} else {
		log.Warn("telegram bot is not configured, contact relay disabled")
	}

	// Run sync scheduler
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	group.Go(func() error {
		defer func() {
			log.Info("shutting down cron")
			c.Stop()
		}()

		for _, catalog := range cfg.Catalogs {
			catalog := catalog
			if catalog.CronSchedule == "" {
				log.Debugf("catalog %q is push only, not scheduling", catalog.ID)
				continue
			}

			if !engine.Registered(catalog.Provider) {
				log.Warnf("no client for provider %q, not scheduling catalog %q", catalog.Provider, catalog.ID)
				continue
			}

			_, err := c.AddFunc(catalog.CronSchedule, func() {
				if _, err := engine.Sync(ctx, catalog); err != nil {
					log.WithError(err).Errorf("failed to sync catalog %q", catalog.ID)
				}
			})
			if err != nil {
				log.WithError(err).Fatalf("can't create cron task for catalog %q", catalog.ID)
			}

			log.Debugf("-> %s (%s)", catalog.ID, catalog.CronSchedule)

			// Perform initial sync after restart
			if _, err := engine.Sync(ctx, catalog); err != nil {
				log.WithError(err).Errorf("initial sync failed for catalog %q", catalog.ID)
			}
		}

		c.Start()

		<-ctx.Done()
		return ctx.Err()
	})

	// Run web server
	api := handler.New(cfg, engine, storage, chatSvc, relay, handler.Opts{
		SelarWebhookSecret: cfg.Tokens.SelarWebhookSecret,
	})

	srv := NewServer(cfg, api)

	group.Go(func() error {
		log.Infof("running listener at %s", srv.Addr)
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		defer func() {
			log.Info("shutting down web server")
			if err := srv.Shutdown(ctx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	log.Info("gracefully stopped")
}
