package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"caldash/internal/almanac"
	"caldash/internal/config"
	"caldash/internal/feed"
	appLog "caldash/internal/log"
	"caldash/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("caldash starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_months", conf.HorizonMonths,
		"work_days", conf.WorkDays,
		"off_days", conf.OffDays,
		"holiday_feeds", len(conf.Holidays),
		"once", flags.once,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone; falling back to UTC", err, "timezone", conf.Timezone)
		loc = time.UTC
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	cache := almanac.NewCache(loc, conf.HorizonMonths)
	server := web.NewServer(conf, cache)

	cacheDir := conf.CacheDir
	if flags.debug {
		cacheDir = "./cache/feed-cache"
	}
	fetcher := feed.NewFetcher(cacheDir)

	refresh := func() {
		refreshHolidays(ctx, conf, fetcher, server)
		cache.Refresh()
	}

	// Initial refresh so the API never serves an empty holiday set on boot.
	refresh()

	if flags.once {
		appLog.Info("one-shot refresh completed, exiting")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, refresh); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- web.StartServer(ctx, server)
	}()

	select {
	case <-ctx.Done():
		appLog.Info("caldash exiting")
	case err := <-httpErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}
}

// refreshHolidays fetches every configured holiday feed and swaps the
// server's holiday set. Partial failures keep whatever each feed's cache
// still offers.
func refreshHolidays(ctx context.Context, conf *config.Config, fetcher *feed.Fetcher, server *web.Server) {
	if len(conf.Holidays) == 0 {
		return
	}

	sources := make([]feed.Source, 0, len(conf.Holidays))
	for _, fc := range conf.Holidays {
		if fc.URL == "" {
			continue
		}
		id := fc.ID
		if id == "" {
			if fc.Name != "" {
				id = fc.Name
			} else {
				id = fc.URL
			}
		}
		sources = append(sources, feed.Source{ID: id, Name: fc.Name, URL: fc.URL})
	}

	holidays, errs := fetcher.Holidays(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("holiday refresh: some feeds failed", errorsAggregate(errs), "error_count", len(errs))
	}

	server.SetHolidays(feed.Set(holidays))
	appLog.Info("holiday set refreshed", "holiday_count", len(holidays), "feed_count", len(sources))
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/caldash/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one feed+almanac refresh and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging and relative cache paths")

	flag.Parse()

	return cfg
}

// errorsAggregate flattens a slice of errors into one loggable error.
func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
