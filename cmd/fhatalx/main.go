// FhatalX: crypto market dashboard backend.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Fhatal-Studios/FhatalX/api"
	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/internal/infra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fhatalx",
	Short: "FhatalX: crypto market dashboard",
	Long: `FhatalX aggregates CoinGecko market data, Binance tradability and
crypto news into a dashboard of movers, trending coins and trade ideas.
Run "fhatalx serve" for the HTTP API or use the subcommands for a
one-shot view in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		slog.SetDefault(infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(moversCmd)
	rootCmd.AddCommand(ideasCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(consentCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FhatalX %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		api.Version = version
		srv := api.NewServer(cfg, a.dash, a.consent)

		// The first snapshot is best-effort; clients get 503 until one lands.
		if _, err := a.dash.Refresh(ctx); err != nil {
			slog.Warn("initial refresh failed", "error", err)
		}
		if interval := cfg.Refresh.Interval(); interval > 0 {
			slog.Info("periodic refresh enabled", "interval", interval)
			go a.dash.RunPeriodic(ctx, interval)
		}

		fmt.Printf("🌐 Starting FhatalX API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(ctx, cfg.API.Addr())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  FhatalX System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		if f := cfg.File(); f != "" {
			fmt.Printf("    Config File:   %s\n", f)
		}
		fmt.Printf("    Default Fiat:  %s (supported: %v)\n", cfg.Market.DefaultFiat, cfg.Market.SupportedFiats)
		fmt.Printf("    CoinGecko:     %s\n", cfg.Market.CoinGeckoURL)
		fmt.Printf("    Binance:       %s\n", cfg.Exchange.BinanceURL)
		fmt.Printf("    News Feeds:    %d\n", len(cfg.News.Sources))
		fmt.Printf("    Storage:       %s (%s)\n", cfg.Storage.Driver, cfg.Storage.Path)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		if interval := cfg.Refresh.Interval(); interval > 0 {
			fmt.Printf("    Refresh:       every %s\n", interval)
		} else {
			fmt.Printf("    Refresh:       manual\n")
		}
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println()
		fmt.Println("  Preferences:")
		if ids, err := a.dash.FavoritesRepo().List(); err == nil {
			fmt.Printf("    Favorites:     %d\n", len(ids))
		}
		if st, err := a.consent.Load(); err == nil {
			fmt.Printf("    Consent:       %s\n", consentLine(st.Consent, st.NeedsPrompt))
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
