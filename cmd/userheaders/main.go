package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/userheaders/pkg/cache"
	"github.com/umputun/userheaders/pkg/config"
	"github.com/umputun/userheaders/pkg/harvest"
	"github.com/umputun/userheaders/pkg/headers"
	"github.com/umputun/userheaders/pkg/resolver"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"UH_CONFIG" description:"yaml config file"`
	All     bool   `short:"a" long:"all" description:"print all resolved headers, not only the reuse-safe subset"`
	JSON    bool   `long:"json" description:"print headers as json"`
	Harvest bool   `long:"harvest" description:"capture live headers by opening the default browser"`
	Refresh bool   `long:"refresh" description:"ignore cached headers and resolve again"`
	Fetch   string `long:"fetch" value-name:"URL" description:"demo: fetch an rss/atom feed with the resolved headers"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	profile, err := getProfile(ctx, cfg, opts)
	if err != nil {
		return err
	}

	if opts.Fetch != "" {
		return fetchFeed(ctx, cfg, headers.Safe(profile), opts.Fetch)
	}

	if !opts.All {
		profile = headers.Safe(profile)
	}
	return printProfile(os.Stdout, profile, opts.JSON)
}

// getProfile produces the header profile: cached copy when fresh enough,
// live harvest on request, resolver otherwise. Harvest trouble degrades to
// the resolver, resolution itself never fails.
func getProfile(ctx context.Context, cfg *config.Config, opts Opts) (*headers.Profile, error) {
	var store *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		if store, err = cache.New(cfg.Cache.Path, cfg.Cache.TTL); err != nil {
			return nil, fmt.Errorf("open header cache: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("[WARN] cache close: %v", err)
			}
		}()

		if err := store.ClearExpired(ctx); err != nil {
			log.Printf("[WARN] %v", err)
		}
		if !opts.Refresh && !opts.Harvest {
			cached, err := store.Get(ctx)
			if err != nil {
				log.Printf("[WARN] %v", err)
			}
			if cached != nil {
				log.Print("[DEBUG] using cached headers")
				return cached, nil
			}
		}
	}

	var profile *headers.Profile
	if opts.Harvest {
		p, err := harvest.New(cfg.Harvest.Timeout).Run(ctx)
		if err != nil {
			log.Printf("[WARN] harvest failed, falling back to resolver: %v", err)
		} else {
			profile = p
		}
	}
	if profile == nil {
		profile = resolver.New().Resolve()
	}

	if store != nil {
		if err := store.Save(ctx, profile); err != nil {
			log.Printf("[WARN] can't cache headers: %v", err)
		}
	}
	return profile, nil
}

// printProfile writes headers aligned or as json
func printProfile(w io.Writer, p *headers.Profile, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p.Map())
	}
	for _, k := range p.Keys() {
		if _, err := fmt.Fprintf(w, "%25s: %s\n", headers.Canonical(k), p.Get(k)); err != nil {
			return err
		}
	}
	return nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
