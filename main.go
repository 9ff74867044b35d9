package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"veloready/internal/analysis"
	"veloready/internal/auth"
	"veloready/internal/backfill"
	"veloready/internal/config"
	"veloready/internal/healthsync"
	"veloready/internal/provider"
	"veloready/internal/report"
	"veloready/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your VeloHub API credentials.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	command := "report"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "connect":
		return connect(ctx, db, cfg)
	case "sync":
		return sync(ctx, db, cfg)
	case "backfill":
		return runBackfill(ctx, db, cfg, args)
	case "report":
		return printReport(ctx, db, cfg)
	default:
		return fmt.Errorf("unknown command %q (want connect, sync, backfill or report)", command)
	}
}

// connect runs the OAuth flow and stores the resulting tokens.
func connect(ctx context.Context, db *store.Store, cfg *config.Config) error {
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.VeloHub.ClientID,
		ClientSecret: cfg.VeloHub.ClientSecret,
	})

	result, err := auth.Authenticate(ctx, oauthCfg)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	if err := db.SaveAuth(ctx, &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}

	fmt.Println("Connected. Run `veloready sync` to pull your data.")
	return nil
}

// sync pulls wellness samples and activities into the local store.
func sync(ctx context.Context, db *store.Store, cfg *config.Config) error {
	client, err := apiClient(ctx, db, cfg)
	if err != nil {
		return err
	}

	syncer := healthsync.NewSyncer(client, db, slog.Default())
	result, err := syncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("Synced %d wellness days and %d activities.\n",
		result.WellnessDaysStored, result.ActivitiesStored)
	for _, e := range result.Errors {
		fmt.Printf("  warning: %v\n", e)
	}
	return nil
}

// runBackfill recomputes scores and training load over the window.
func runBackfill(ctx context.Context, db *store.Store, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("backfill", flag.ContinueOnError)
	window := flags.Int("window", cfg.Backfill.WindowDays, "trailing days to recompute")
	force := flags.Bool("force", false, "bypass the per-family throttle")
	metricsAddr := flags.String("metrics-addr", "", "if set, serve Prometheus metrics on this address during the run")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	svc := scheduler(db, cfg)
	rep, err := svc.RunBackfill(ctx, *window, *force)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	fmt.Printf("Backfill complete: %d updated, %d skipped, %d errored.\n",
		len(rep.UpdatedDays), len(rep.SkippedDays), len(rep.ErroredDays))
	if len(rep.ThrottledFamilies) > 0 {
		fmt.Printf("Throttled families (ran recently, today still refreshed): %v\n",
			rep.ThrottledFamilies)
	}
	return nil
}

// printReport renders today's dashboard from stored records.
func printReport(ctx context.Context, db *store.Store, cfg *config.Config) error {
	svc := scheduler(db, cfg)

	// Refresh before rendering; the throttle keeps this cheap.
	if _, err := svc.RunBackfill(ctx, cfg.Backfill.WindowDays, false); err != nil {
		return fmt.Errorf("refreshing scores: %w", err)
	}

	today := store.DayKey(time.Now())
	rec, err := db.GetScoreRecord(ctx, today)
	if err != nil && !errors.Is(err, store.ErrNoRecord) {
		return fmt.Errorf("reading today's record: %w", err)
	}

	start := store.DayKey(time.Now().AddDate(0, 0, -42))
	trend, err := svc.TrainingLoadRange(ctx, start, today)
	if err != nil {
		return fmt.Errorf("reading load trend: %w", err)
	}

	fmt.Println(report.Render(today, rec, trend))
	return nil
}

func scheduler(db *store.Store, cfg *config.Config) *backfill.Service {
	providers := provider.NewStoreProvider(db)

	bcfg := backfill.DefaultConfig()
	bcfg.WindowDays = cfg.Backfill.WindowDays
	bcfg.Throttle = time.Duration(cfg.Backfill.ThrottleHours * float64(time.Hour))
	bcfg.Profile = analysis.AthleteProfile{
		FTP:        cfg.Athlete.FTP,
		MaxHR:      cfg.Athlete.MaxHR,
		RestingHR:  cfg.Athlete.RestingHR,
		BodyMassKG: cfg.Athlete.BodyMassKG,
		SleepNeed:  cfg.Athlete.SleepNeedHours * 3600,
	}
	bcfg.Anomaly.Threshold = cfg.Scoring.AnomalyThreshold
	bcfg.Bands = analysis.StrainBands{
		Light:    cfg.Scoring.StrainLightBelow,
		Moderate: cfg.Scoring.StrainModerateBelow,
		Hard:     cfg.Scoring.StrainHardBelow,
	}

	return backfill.New(db, providers, providers, providers, bcfg, slog.Default())
}

// apiClient builds an authenticated VeloHub client from stored tokens.
func apiClient(ctx context.Context, db *store.Store, cfg *config.Config) (*healthsync.Client, error) {
	storedAuth, err := db.GetAuth(ctx)
	if errors.Is(err, store.ErrNoAuth) {
		return nil, errors.New("not connected - run `veloready connect` first")
	}
	if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.VeloHub.ClientID,
		ClientSecret: cfg.VeloHub.ClientSecret,
	})

	token := &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}

	tokenSource := auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
		return db.UpdateTokens(ctx, newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})

	return healthsync.NewClient(tokenSource, cfg.VeloHub.BaseURL), nil
}
