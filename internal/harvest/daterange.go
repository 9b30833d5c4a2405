package harvest

import (
	"time"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// Window is one inclusive date range.
type Window struct {
	From time.Time
	To   time.Time
}

// FromParam and ToParam render the window in the portal's DD-MM-YYYY form.
func (w Window) FromParam() string { return w.From.Format(config.DateLayout) }
func (w Window) ToParam() string   { return w.To.Format(config.DateLayout) }

// Windows partitions [from, to] into contiguous, non-overlapping ranges of
// days days each, most recent first. The oldest range is clipped at from.
// It returns nil when to is before from.
func Windows(from, to time.Time, days int) []Window {
	if days < 1 {
		days = 1
	}
	from, to = truncateDay(from), truncateDay(to)

	var out []Window
	for end := to; !end.Before(from); {
		start := end.AddDate(0, 0, -(days - 1))
		if start.Before(from) {
			start = from
		}
		out = append(out, Window{From: start, To: end})
		end = start.AddDate(0, 0, -1)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDate parses a DD-MM-YYYY value.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(config.DateLayout, s)
	if err != nil {
		return time.Time{}, config.Invalidf("harvest: date %q must be DD-MM-YYYY", s)
	}
	return t, nil
}
