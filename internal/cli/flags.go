package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"netpulse/internal/query"
	"netpulse/internal/storage"
)

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("window", "w", "", "lookback window (1h, 24h, 7d, 30d, all); default 24h")
	cmd.Flags().String("from", "", `range start, e.g. "2025-03-01 14:00" (overrides --window)`)
	cmd.Flags().String("to", "", "range end (overrides --window)")
	cmd.RegisterFlagCompletionFunc("window", completeWindows)
}

// rangeFromFlags resolves --window/--from/--to against now and returns a
// label for headings.
func rangeFromFlags(cmd *cobra.Command, now time.Time) (storage.Range, string, error) {
	window, _ := cmd.Flags().GetString("window")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	w, err := query.ParseWindow(window)
	if err != nil {
		return storage.Range{}, "", err
	}
	r, err := query.ParseRange(w, from, to, now)
	if err != nil {
		return storage.Range{}, "", err
	}
	return r, rangeLabel(w, from, to), nil
}

func rangeLabel(w query.Window, from, to string) string {
	switch {
	case from == "" && to == "":
		if w == query.WindowAll {
			return "all time"
		}
		return "last " + w.String()
	case to == "":
		return fmt.Sprintf("since %s", from)
	case from == "":
		return fmt.Sprintf("until %s", to)
	default:
		return fmt.Sprintf("%s to %s", from, to)
	}
}

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatLatency(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f ms", *ms)
}
