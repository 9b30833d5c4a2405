package harvest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := parseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindows_MostRecentFirstClippedAtStart(t *testing.T) {
	ws := Windows(day("01-01-2024"), day("01-03-2024"), 7)
	require.Len(t, ws, 9)

	assert.Equal(t, "24-02-2024", ws[0].FromParam())
	assert.Equal(t, "01-03-2024", ws[0].ToParam())
	assert.Equal(t, "17-02-2024", ws[1].FromParam())
	assert.Equal(t, "23-02-2024", ws[1].ToParam())

	last := ws[len(ws)-1]
	assert.Equal(t, "01-01-2024", last.FromParam())
	assert.Equal(t, "05-01-2024", last.ToParam())
}

func TestWindows_ContiguousAndCovering(t *testing.T) {
	from, to := day("15-03-2023"), day("02-06-2023")
	ws := Windows(from, to, 10)

	assert.Equal(t, to, ws[0].To)
	assert.Equal(t, from, ws[len(ws)-1].From)
	for i, w := range ws {
		assert.False(t, w.From.After(w.To))
		assert.LessOrEqual(t, int(w.To.Sub(w.From).Hours()/24)+1, 10)
		if i > 0 {
			assert.Equal(t, w.To.AddDate(0, 0, 1), ws[i-1].From, "window %d must abut window %d", i, i-1)
		}
	}
}

func TestWindows_EdgeCases(t *testing.T) {
	single := Windows(day("05-05-2024"), day("05-05-2024"), 7)
	require.Len(t, single, 1)
	assert.Equal(t, single[0].From, single[0].To)

	assert.Empty(t, Windows(day("06-05-2024"), day("05-05-2024"), 7))

	exact := Windows(day("01-01-2024"), day("14-01-2024"), 7)
	require.Len(t, exact, 2)
	assert.Equal(t, "08-01-2024", exact[0].FromParam())
	assert.Equal(t, "01-01-2024", exact[1].FromParam())
	assert.Equal(t, "07-01-2024", exact[1].ToParam())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := parseDate("2024-01-01")
	assert.Error(t, err)
}
