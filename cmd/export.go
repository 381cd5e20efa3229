package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/config"
	browserfetch "github.com/naoyuki-hirata-biz/scraping-gn/internal/fetch/browser"
	staticfetch "github.com/naoyuki-hirata-biz/scraping-gn/internal/fetch/static"
	"github.com/naoyuki-hirata-biz/scraping-gn/internal/logging"
	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
	"github.com/naoyuki-hirata-biz/scraping-gn/internal/sink"
	"github.com/naoyuki-hirata-biz/scraping-gn/internal/staging"
)

// newExportCmd creates the 'export' subcommand, which runs one full
// extraction pipeline against the given listing URI.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Runs the extraction pipeline and writes the CSV file",
		RunE:  runExportCommand,
	}

	flags := cmd.Flags()
	flags.String("uri", "", "listing page URI (network address or file:// fixture)")
	flags.String("lib", config.BackendStatic, "fetch backend: static or browser")
	flags.String("filename", "results.csv", "output CSV file name")
	flags.Int("shops", config.MaxShops, fmt.Sprintf("maximum number of shops acquired (%d-%d)", config.MinShops, config.MaxShops))
	flags.Int("timeout", 90, "timeout to find an element or window (seconds)")
	flags.Int("retry", 3, "number of retries")

	v := viper.GetViper()
	cobra.CheckErr(v.BindPFlag("uri", flags.Lookup("uri")))
	cobra.CheckErr(v.BindPFlag("backend", flags.Lookup("lib")))
	cobra.CheckErr(v.BindPFlag("output", flags.Lookup("filename")))
	cobra.CheckErr(v.BindPFlag("shops", flags.Lookup("shops")))
	cobra.CheckErr(v.BindPFlag("timeout_seconds", flags.Lookup("timeout")))
	cobra.CheckErr(v.BindPFlag("retry", flags.Lookup("retry")))

	return cmd
}

func runExportCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	cleanup, err := staging.Stage(cfg.URI, cfg.Staging, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	backend, err := buildBackend(cfg, logger)
	if err != nil {
		return err
	}

	out, err := sink.NewCSV(cfg.Output)
	if err != nil {
		_ = backend.Close()
		return err
	}

	retry := scrape.RetryConfig{Attempts: cfg.Retry, Delay: scrape.RetryDelay}
	resolver := scrape.NewResolver(backend, retry, logger)
	pipeline := scrape.NewPipeline(
		backend,
		scrape.NewEnumerator(backend, scrape.NewPacer(scrape.RetryDelay), logger),
		scrape.NewExtractor(backend, resolver, retry, logger),
		out,
		cfg.Shops,
		logger,
	)

	if err := pipeline.Run(cmd.Context(), cfg.URI); err != nil {
		logger.Error("export failed", zap.Error(err))
		return err
	}
	return nil
}

func buildBackend(cfg config.Config, logger *zap.Logger) (scrape.Backend, error) {
	switch cfg.Backend {
	case config.BackendBrowser:
		session, err := browserfetch.New(browserfetch.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
			Headful:   cfg.Headful,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init browser session: %w", err)
		}
		return session, nil
	case config.BackendStatic:
		return staticfetch.New(staticfetch.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
