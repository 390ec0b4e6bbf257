package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/librepod/librepod/pkg/config"
	"github.com/librepod/librepod/pkg/feed"
	"github.com/librepod/librepod/pkg/fetch"
	"github.com/librepod/librepod/pkg/handler"
	"github.com/librepod/librepod/services/update"
	"github.com/librepod/librepod/services/web"
)

type Opts struct {
	ConfigPath  string `long:"config" short:"c" default:"config.toml" env:"LIBREPOD_CONFIG_PATH"`
	Debug       bool   `long:"debug"`
	NoBanner    bool   `long:"no-banner"`
	RefreshOnce bool   `long:"refresh-once" description:"refresh all channels and exit"`
}

const banner = `
 _     _ _                                 _
| |   (_) |__  _ __ ___ _ __   ___   __| |
| |   | | '_ \| '__/ _ \ '_ \ / _ \ / _' |
| |___| | |_) | | |  __/ |_) | (_) | (_| |
|_____|_|_.__/|_|  \___| .__/ \___/ \__,_|
                       |_|
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

	// Interrupt startup and refresh-once runs as well as the server
	go watchStop(ctx, cancel, stop)

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	if cfg.Log.Filename != "" {
		log.Infof("writing logs to %s", cfg.Log.Filename)
		log.SetOutput(logOutput(&cfg.Log))
	}

	if !opts.NoBanner {
		log.Info(banner)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running librepod")

	store, err := openCache(&cfg.Cache)
	if err != nil {
		log.WithError(err).Fatal("failed to open feed cache")
	}

	database, err := openStorage(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	defer closeAll(database, store)

	fetcher := fetch.New(store,
		fetch.WithTimeout(cfg.Updater.Timeout.Duration),
		fetch.WithUserAgent(cfg.Updater.UserAgent),
	)

	log.Debug("creating updater")
	updater, err := update.NewUpdater(fetcher, database, cfg.Updater.Concurrency, &cfg.Updater.Filters)
	if err != nil {
		log.WithError(err).Fatal("failed to create updater")
	}

	updater.OnNewEpisodes(cfg.Updater.OnNewEpisodes...)

	subscribe(ctx, updater, cfg)

	if ctx.Err() != nil {
		log.Info("stopped during startup")
		return
	}

	if opts.RefreshOnce {
		report, err := updater.RefreshAll(ctx)
		if err != nil {
			log.WithError(err).Fatal("refresh failed")
		}

		if err := report.Err(); err != nil {
			log.WithError(err).Warn("some channels failed to refresh")
		}

		return
	}

	group, ctx := errgroup.WithContext(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	group.Go(func() error {
		defer func() {
			log.Info("shutting down cron")
			<-c.Stop().Done()
		}()

		_, err := c.AddFunc(cfg.Updater.Schedule, func() {
			if _, err := updater.RefreshAll(ctx); err != nil {
				log.WithError(err).Error("failed to refresh channels")
			}
		})

		if err != nil {
			return err
		}

		log.Debugf("-> refresh schedule %q", cfg.Updater.Schedule)

		// Perform initial refresh after restart
		if _, err := updater.RefreshAll(ctx); err != nil {
			log.WithError(err).Error("initial refresh failed")
		}

		c.Start()

		<-ctx.Done()
		return ctx.Err()
	})

	// Run web server
	srv := web.New(cfg.Server, handler.New(updater, database))

	group.Go(func() error {
		return srv.Serve()
	})

	group.Go(func() error {
		// Shutdown web server
		defer func() {
			log.Info("shutting down web server")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		<-ctx.Done()
		return ctx.Err()
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	log.Info("gracefully stopped")
}

// watchStop cancels ctx on the first stop signal
func watchStop(ctx context.Context, cancel context.CancelFunc, stop <-chan os.Signal) {
	select {
	case <-stop:
		log.Info("received stop signal")
		cancel()
	case <-ctx.Done():
	}
}

// subscribe adds the feeds listed in the configuration and the OPML file.
// Feeds that are already known are refreshed as usual.
func subscribe(ctx context.Context, updater *update.Manager, cfg *config.Config) {
	urls := append([]string(nil), cfg.Feeds...)

	if cfg.OPML != "" {
		data, err := os.ReadFile(cfg.OPML)
		if err != nil {
			log.WithError(err).Errorf("failed to read OPML file %s", cfg.OPML)
		} else if imported, err := feed.ParseOPML(data); err != nil {
			log.WithError(err).Errorf("failed to import OPML file %s", cfg.OPML)
		} else {
			urls = append(urls, imported...)
		}
	}

	for _, feedURL := range urls {
		if ctx.Err() != nil {
			return
		}

		channel, err := updater.Subscribe(ctx, feedURL)
		if err != nil {
			log.WithError(err).Errorf("failed to subscribe to %s", feedURL)
			continue
		}

		log.Debugf("-> %s (%s)", channel.Title, feedURL)
	}
}
