package cmd

import (
	"context"
	"fmt"

	"sjsage522/hoyocodeworker/config"
	"sjsage522/hoyocodeworker/helpers"
	"sjsage522/hoyocodeworker/internal/profile"
	"sjsage522/hoyocodeworker/internal/scraper"
	"sjsage522/hoyocodeworker/logger"
	"sjsage522/hoyocodeworker/services/cache"
	"sjsage522/hoyocodeworker/services/notifier"
	"sjsage522/hoyocodeworker/services/publisher"
	"sjsage522/hoyocodeworker/services/store"
	"sjsage522/hoyocodeworker/services/worker"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the hoyocodes command. Flags override the matching
// environment variables held by v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	var (
		game   string
		dryRun bool
		events bool
	)

	cmd := &cobra.Command{
		Use:   "hoyocodes",
		Short: "hoyocodes scrapes HoYo wiki redemption codes and announces new ones to a webhook.",
		Long: "hoyocodes fetches the promotional code table of one game from its wiki, compares it with\n" +
			"the codes seen by earlier runs, saves the new list and posts every new code to a Discord webhook.\n" +
			"It runs a single pass; schedule it externally.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg, game, worker.Options{
				DryRun:           dryRun,
				Events:           events,
				OutputFile:       cfg.OutputFile,
				NotifyOnFirstRun: cfg.NotifyOnFirstRun,
				PushgatewayURL:   cfg.PushgatewayURL,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&game, "game", "g", "", "game to scrape (genshin or honkai)")
	flags.StringP("webhook", "w", "", "Discord webhook receiving new codes (env WEBHOOK_URL)")
	flags.StringP("output", "o", "", "write the combined codes and events report to this file (env OUTPUT_FILE)")
	flags.BoolVar(&dryRun, "dry-run", false, "print the parsed records and exit without saving or notifying")
	flags.BoolVar(&events, "events", false, "also scrape the events page")
	_ = cmd.MarkFlagRequired("game")

	_ = v.BindPFlag("WEBHOOK_URL", flags.Lookup("webhook"))
	_ = v.BindPFlag("OUTPUT_FILE", flags.Lookup("output"))

	return cmd
}

// rateLimitGuard connects to memcached when configured. Dry runs get no guard
// so they never write a block key.
func rateLimitGuard(cfg *config.Config, dryRun bool) cache.CacheService {
	if cfg.MemcacheAddr == "" || dryRun {
		return nil
	}
	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		logger.ForComponent("cmd").Warn().Err(err).Msg("rate limit guard disabled")
		return nil
	}
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	return mc
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand(config.New()).ExecuteContext(ctx)
}

func run(ctx context.Context, cfg *config.Config, game string, opts worker.Options) error {
	log := logger.ForComponent("cmd")

	profiles, err := profile.LoadFile(cfg.ProfilesFile)
	if err != nil {
		return err
	}
	p, err := profiles.Get(game)
	if err != nil {
		return err
	}

	helpers.SetTimeout(cfg.FetchTimeout)

	cacheSvc := rateLimitGuard(cfg, opts.DryRun)

	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreRedis:
		st = store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		logger.Info("Using Redis store at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	default:
		st = store.NewFileStore(cfg.CacheDir, profiles)
	}
	defer st.Close()

	var n notifier.Notifier
	if cfg.WebhookURL != "" {
		n = notifier.NewDiscordNotifier(cfg.WebhookURL, cfg.MentionID, p)
	}

	var pub publisher.Publisher
	if cfg.RedisStream != "" && !opts.DryRun {
		rp := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
		defer rp.Close()
		pub = rp
		logger.Info("Publishing new codes to Redis stream %s (%d shards)", cfg.RedisStream, cfg.RedisStreamCount)
	}

	log.Info().
		Str("game", p.ID).
		Str("environment", cfg.Environment).
		Str("store", cfg.StoreBackend).
		Bool("webhook", n != nil).
		Msg("Starting scraper")

	pipeline := scraper.NewPipeline(p, scraper.NewTableFetcher(cacheSvc, cfg.RateLimitBlock))
	_, err = worker.NewWorker(p, pipeline, st, n, pub, opts).Run(ctx)
	return err
}
