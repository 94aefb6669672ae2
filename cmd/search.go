package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one event search",
	Long:  "Runs the full discovery pipeline for a query and prints the extracted events.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := searchRequestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		if !noCache {
			if cached := env.Cache.Get(ctx, req); cached != nil {
				cached.Telemetry.CacheHit = true
				zap.L().Info("serving cached result", zap.String("query", req.Query))
				return printResult(os.Stdout, cached, asJSON)
			}
		}

		run, err := env.Store.CreateRun(ctx, req)
		if err != nil {
			return eris.Wrap(err, "search: create run")
		}

		result, err := env.Orchestrator.Run(ctx, req)
		if err != nil {
			_ = env.Store.CompleteRun(ctx, run.ID, model.RunStatusFailed, nil)
			return err
		}

		if err := env.Store.CompleteRun(ctx, run.ID, runStatusFor(result), result); err != nil {
			zap.L().Warn("persisting run result failed", zap.Error(err))
		}
		if !noCache {
			env.Cache.Put(ctx, req, result)
		}

		return printResult(os.Stdout, result, asJSON)
	},
}

func init() {
	searchCmd.Flags().String("country", "", "2-letter country code to filter events")
	searchCmd.Flags().String("from", "", "start of date window (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "end of date window (YYYY-MM-DD)")
	searchCmd.Flags().Bool("bypass-ranking", false, "skip model ranking, use heuristic scores")
	searchCmd.Flags().Bool("json", false, "print the full result envelope as JSON")
	searchCmd.Flags().Bool("no-cache", false, "skip the result cache for this run")
	rootCmd.AddCommand(searchCmd)
}

// searchRequestFromFlags builds a SearchRequest from command flags. Defaults
// from config are applied inside the orchestrator.
func searchRequestFromFlags(cmd *cobra.Command, query string) (model.SearchRequest, error) {
	country, _ := cmd.Flags().GetString("country")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	bypass, _ := cmd.Flags().GetBool("bypass-ranking")

	req := model.SearchRequest{
		Query:   query,
		Country: country,
		Flags:   cfg.Search.Flags,
	}
	req.Flags.BypassRanking = req.Flags.BypassRanking || bypass

	var err error
	if req.DateFrom, err = parseDateFlag(fromStr); err != nil {
		return req, err
	}
	if req.DateTo, err = parseDateFlag(toStr); err != nil {
		return req, err
	}
	return req, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, eris.Errorf("search: invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// runStatusFor maps a result envelope onto a stored run status.
func runStatusFor(result *model.OrchestratorResult) model.RunStatus {
	if result.FallbackUsed || len(result.Issues) > 0 {
		return model.RunStatusDegraded
	}
	return model.RunStatusComplete
}

func printResult(out io.Writer, result *model.OrchestratorResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Items) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	formatEvents(out, result.Items)

	fmt.Fprintf(out, "\n%d events in %dms", len(result.Items), result.Telemetry.TotalDurationMS)
	if result.FallbackUsed {
		fmt.Fprint(out, " (curated fallback)")
	}
	fmt.Fprintln(out)

	for _, issue := range result.Issues {
		fmt.Fprintf(out, "warning: %s\n", issue)
	}
	return nil
}

// formatEvents writes a tabular event list to out.
func formatEvents(out io.Writer, events []model.ExtractedEvent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tDATE\tLOCATION\tCONF\tURL")
	_, _ = fmt.Fprintln(w, "-----\t----\t--------\t----\t---")

	for _, e := range events {
		date := ""
		if e.StartsAt != nil {
			date = e.StartsAt.Format("2006-01-02")
		}

		loc := e.City
		if e.Country != "" {
			if loc != "" {
				loc += ", "
			}
			loc += e.Country
		}

		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", title, date, loc, e.Confidence, e.URL)
	}
	_ = w.Flush()
}
