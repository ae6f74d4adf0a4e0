package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fhatal-Studios/FhatalX/pkg/models"
	"github.com/Fhatal-Studios/FhatalX/pkg/utils"
)

// withSnapshot opens the app, applies --fiat and fetches one snapshot.
func withSnapshot(cmd *cobra.Command, fn func(a *app, fiat string) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	fiat, _ := cmd.Flags().GetString("fiat")
	if fiat != "" {
		_, err = a.dash.SetFiat(ctx, fiat)
	} else {
		_, err = a.dash.Refresh(ctx)
	}
	if err != nil {
		return err
	}
	return fn(a, a.dash.Fiat())
}

func addMarketFlags(cmd *cobra.Command, filter bool) {
	cmd.Flags().String("fiat", "", "fiat currency (default: market.default_fiat)")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	if filter {
		cmd.Flags().StringP("query", "q", "", "filter by coin id, symbol or name")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// --- Snapshot Command ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch a snapshot and print the dashboard header",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshot(cmd, func(a *app, fiat string) error {
			q, _ := cmd.Flags().GetString("query")
			view, err := a.dash.View(q)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), view)
			}
			printHeader(cmd.OutOrStdout(), view)
			return nil
		})
	},
}

func printHeader(w io.Writer, v models.DashboardView) {
	g := v.Global
	fmt.Fprintf(w, "Fiat:            %s\n", strings.ToUpper(v.Fiat))
	fmt.Fprintf(w, "Market Cap:      %s\n", utils.FormatFiatCompact(g.MarketCap, v.Fiat))
	fmt.Fprintf(w, "24h Volume:      %s\n", utils.FormatFiatCompact(g.Volume24h, v.Fiat))
	if g.BTCDominance != nil {
		fmt.Fprintf(w, "BTC Dominance:   %.2f%%\n", *g.BTCDominance)
	}
	fmt.Fprintf(w, "Active Coins:    %d\n", g.ActiveCryptocurrencies)
	fmt.Fprintf(w, "Fetched:         %s\n", utils.FormatDateTimeUTC(v.FetchedAt))
	fmt.Fprintf(w, "Ideas:           %d momentum, %d dip, %d reversal\n",
		len(v.Ideas.Momentum), len(v.Ideas.Dip), len(v.Ideas.Reversal))
	if len(v.Favorites) > 0 {
		fmt.Fprintf(w, "Favorites:       %d\n", len(v.Favorites))
	}
}

// --- Movers Command ---

var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Show top gainers and losers by 24h change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshot(cmd, func(a *app, fiat string) error {
			q, _ := cmd.Flags().GetString("query")
			m, err := a.dash.Movers(q)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), m)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "📈 Gainers")
			printCoinRows(w, m.Gainers, fiat)
			fmt.Fprintln(w, "\n📉 Losers")
			printCoinRows(w, m.Losers, fiat)
			return nil
		})
	},
}

func printCoinRows(w io.Writer, rows []models.CoinRow, fiat string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tSYMBOL\tNAME\tPRICE\t24H\t7D")
	for _, r := range rows {
		star := ""
		if r.IsFavorite {
			star = "★"
		}
		d7, ok := r.Change7d()
		var p7 *float64
		if ok {
			p7 = &d7
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", star,
			strings.ToUpper(r.Symbol), r.Name,
			utils.FormatFiat(r.CurrentPrice, fiat),
			utils.FormatPctPtr(r.PriceChangePct24h), utils.FormatPctPtr(p7))
	}
	tw.Flush()
}

// --- Ideas Command ---

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Show momentum, dip and reversal trade ideas",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshot(cmd, func(a *app, fiat string) error {
			q, _ := cmd.Flags().GetString("query")
			board, err := a.dash.Ideas(q)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), board)
			}
			if a.dash.Tradable().Len() == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  exchange symbols unavailable, idea screens are empty")
			}
			w := cmd.OutOrStdout()
			for _, s := range []struct {
				title string
				ideas []models.Idea
			}{
				{"🚀 Momentum", board.Momentum},
				{"🩸 Dip", board.Dip},
				{"🔄 Reversal", board.Reversal},
			} {
				fmt.Fprintln(w, s.title)
				printIdeas(w, s.ideas, fiat)
				fmt.Fprintln(w)
			}
			return nil
		})
	},
}

func printIdeas(w io.Writer, ideas []models.Idea, fiat string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tACTION\tPRICE\t1H\t24H\tTP\tSL\tR:R")
	for _, i := range ideas {
		tp, sl, rr := "-", "-", "-"
		if i.TakeProfit != nil {
			f, _ := i.TakeProfit.Float64()
			tp = utils.FormatFiat(f, fiat)
		}
		if i.StopLoss != nil {
			f, _ := i.StopLoss.Float64()
			sl = utils.FormatFiat(f, fiat)
		}
		if i.RewardRisk != nil {
			rr = i.RewardRisk.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strings.ToUpper(i.Coin.Symbol), i.Action,
			utils.FormatFiat(i.Coin.CurrentPrice, fiat),
			utils.FormatPct(i.Change1h), utils.FormatPct(i.Change24h),
			tp, sl, rr)
	}
	tw.Flush()
}

// --- Trending Command ---

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the trending coins",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshot(cmd, func(a *app, _ string) error {
			rows, err := a.dash.Trending()
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSYMBOL\tNAME\tRANK\t")
			for _, r := range rows {
				rank := "-"
				if r.MarketCapRank != nil {
					rank = strconv.Itoa(*r.MarketCapRank)
				}
				star := ""
				if r.IsFavorite {
					star = "★"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Position, strings.ToUpper(r.Symbol), r.Name, rank, star)
			}
			return tw.Flush()
		})
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show the latest crypto headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		articles := a.dash.News(ctx)
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), articles)
		}
		if len(articles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No headlines available.")
			return nil
		}
		now := time.Now()
		for _, art := range articles {
			fmt.Fprintf(cmd.OutOrStdout(), "• %s\n  %s · %s\n  %s\n",
				art.Title, art.Source, utils.FormatAge(art.PublishedAt, now), art.URL)
		}
		return nil
	},
}

// --- Favorites Command ---

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List or toggle favorite coins",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite coin ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.dash.FavoritesRepo().List()
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), ids)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "★ %s\n", id)
		}
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle [coin-id]",
	Short: "Add or remove a coin from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		added, ids, err := a.dash.ToggleFavorite(args[0])
		if err != nil {
			return err
		}
		verb := "Removed"
		if added {
			verb = "Added"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d favorites)\n", verb, args[0], len(ids))
		return nil
	},
}

// --- Consent Command ---

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Show or change the cookie-consent record",
}

func consentLine(c models.Consent, needsPrompt bool) string {
	if needsPrompt {
		return "not yet given"
	}
	at := "-"
	if c.Timestamp != nil {
		at = utils.FormatDateTimeUTC(*c.Timestamp)
	}
	return fmt.Sprintf("analytics=%t marketing=%t (v%d, %s)", c.Analytics, c.Marketing, c.Version, at)
}

var consentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored consent",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.consent.Load()
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), st)
		}
		fmt.Fprintln(cmd.OutOrStdout(), consentLine(st.Consent, st.NeedsPrompt))
		return nil
	},
}

func consentSaver(use, short string, save func(a *app, args []string) (models.Consent, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := save(a, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), consentLine(c, false))
			return nil
		},
	}
}

var (
	consentAcceptCmd = consentSaver("accept", "Accept analytics cookies", func(a *app, _ []string) (models.Consent, error) {
		return a.consent.AcceptAll()
	})
	consentRejectCmd = consentSaver("reject", "Reject optional cookies", func(a *app, _ []string) (models.Consent, error) {
		return a.consent.RejectAll()
	})
	consentSetCmd = consentSaver("set [analytics=true|false]", "Save custom preferences", func(a *app, args []string) (models.Consent, error) {
		analytics, err := parseAnalyticsArg(args)
		if err != nil {
			return models.Consent{}, err
		}
		return a.consent.SavePreferences(analytics)
	})
)

// parseAnalyticsArg accepts "true", "false" or "analytics=<bool>".
func parseAnalyticsArg(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("expected one argument: analytics=true|false")
	}
	v := strings.TrimPrefix(strings.ToLower(args[0]), "analytics=")
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid analytics value %q: %w", args[0], err)
	}
	return b, nil
}

func init() {
	addMarketFlags(snapshotCmd, true)
	addMarketFlags(moversCmd, true)
	addMarketFlags(ideasCmd, true)
	addMarketFlags(trendingCmd, false)
	newsCmd.Flags().Bool("json", false, "print JSON instead of text")

	favoritesListCmd.Flags().Bool("json", false, "print JSON")
	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd)

	consentShowCmd.Flags().Bool("json", false, "print JSON")
	consentCmd.AddCommand(consentShowCmd, consentAcceptCmd, consentRejectCmd, consentSetCmd)
}
