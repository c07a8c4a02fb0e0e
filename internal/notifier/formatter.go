package notifier

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"IndexTrend/internal/model"
)

// FormatRunSummary formats a finished pipeline run into a Telegram message.
func FormatRunSummary(indexName string, s *model.RunSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s trend</b> | %s\n\n", html.EscapeString(indexName), s.FinishedAt.Format("2006-01-02")))

	switch s.State {
	case model.StateNoNewData:
		b.WriteString(fmt.Sprintf("No new data after %s\n", s.Watermark.Format(model.DateLayout)))
	case model.StateFailed:
		b.WriteString(fmt.Sprintf("❌ Run failed: %s\n", html.EscapeString(s.Err)))
	default:
		b.WriteString(fmt.Sprintf("Data upto: %s (%d records)\n", s.AsOf.Format(model.DateLayout), s.Records))
		b.WriteString(fmt.Sprintf("Close: %.2f | avg: %.2f\n", s.LastClose, s.LastAvg))
		if s.LongAverage > 0 {
			dev := (s.LastClose - s.LongAverage) / s.LongAverage * 100
			b.WriteString(fmt.Sprintf("MA200: %.2f (deviation %+.1f%%)\n", s.LongAverage, dev))
		}
		b.WriteString(fmt.Sprintf("1y range position: %.0f%%\n", s.YearPosition*100))
	}

	b.WriteString("\n<b>Fetch:</b>\n")
	b.WriteString(fmt.Sprintf("  added %d | replaced %d\n", s.Added, s.Replaced))
	b.WriteString(fmt.Sprintf("  skipped %d | empty %d\n", s.Skipped, s.Empty))
	if s.HTTPErrors > 0 || s.TransportErrors > 0 {
		b.WriteString(fmt.Sprintf("  ⚠️ http errors %d | transport errors %d\n", s.HTTPErrors, s.TransportErrors))
	}

	if len(s.Artifacts) > 0 {
		names := make([]string, len(s.Artifacts))
		for i, a := range s.Artifacts {
			names[i] = filepath.Base(a.Path)
		}
		b.WriteString(fmt.Sprintf("\nCharts: %s\n", strings.Join(names, ", ")))
	}

	return b.String()
}
