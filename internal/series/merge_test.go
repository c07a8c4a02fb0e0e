package series

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexTrend/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(d time.Time, close int64) model.DailyBar {
	v := decimal.NewFromInt(close)
	return model.DailyBar{Date: d, Open: v, High: v, Low: v, Close: v}
}

func row(text string, close int64) model.ArchiveRow {
	v := decimal.NewFromInt(close)
	return model.ArchiveRow{Date: text, Open: v, High: v, Low: v, Close: v}
}

type memStore struct {
	saved  model.Series
	saves  int
	failOn error
}

func (m *memStore) Load() (model.Series, error) { return m.saved, nil }
func (m *memStore) Save(s model.Series) error {
	if m.failOn != nil {
		return m.failOn
	}
	m.saves++
	m.saved = s
	return nil
}

func TestNormalize_SchemaMapping(t *testing.T) {
	got, err := Normalize(model.ArchiveRow{
		Date:  "01-01-2024",
		Open:  decimal.NewFromInt(100),
		High:  decimal.NewFromInt(110),
		Low:   decimal.NewFromInt(95),
		Close: decimal.NewFromInt(105),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", got.Date.Format(model.DateLayout))
	assert.Equal(t, "100", got.Open.String())
	assert.Equal(t, "110", got.High.String())
	assert.Equal(t, "95", got.Low.String())
	assert.Equal(t, "105", got.Close.String())
}

func TestNormalize_BadDate(t *testing.T) {
	_, err := Normalize(row("2024/01/01", 1))
	assert.Error(t, err)
}

func TestMerge_AppendOnly(t *testing.T) {
	existing := model.Series{
		bar(day(2024, 1, 2), 1),
		bar(day(2024, 1, 1), 2), // unsorted on purpose
		bar(day(2024, 1, 3), 3),
	}
	rows := []model.ArchiveRow{row("05-01-2024", 5), row("04-01-2024", 4)}

	res := Merge(existing, rows)

	require.Len(t, res.Series, len(existing)+len(rows))
	assert.Equal(t, existing, res.Series[:3])
	assert.Equal(t, day(2024, 1, 5), res.Series[3].Date)
	assert.Equal(t, day(2024, 1, 4), res.Series[4].Date)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, day(2024, 1, 5), res.Watermark)
}

func TestMerge_UpsertsDuplicateDate(t *testing.T) {
	existing := model.Series{bar(day(2024, 1, 1), 1), bar(day(2024, 1, 2), 2)}
	rows := []model.ArchiveRow{row("02-01-2024", 20), row("03-01-2024", 3), row("03-01-2024", 30)}

	res := Merge(existing, rows)

	require.Len(t, res.Series, 3)
	assert.Equal(t, "20", res.Series[1].Close.String())
	assert.Equal(t, "30", res.Series[2].Close.String())
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, "2", existing[1].Close.String(), "input left untouched")
}

func TestMerge_DropsUnparseableDates(t *testing.T) {
	res := Merge(nil, []model.ArchiveRow{row("garbage", 1), row("02-01-2024", 2)})
	require.Len(t, res.Series, 1)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, day(2024, 1, 2), res.Watermark)
}

func TestPersist_NoRowsNoWrite(t *testing.T) {
	st := &memStore{}
	existing := model.Series{bar(day(2024, 1, 1), 1)}

	res, err := Persist(st, existing, nil)
	assert.ErrorIs(t, err, ErrNoNewData)
	assert.Equal(t, 0, st.saves)
	assert.Equal(t, existing, res.Series)
}

func TestPersist_WritesFullSeries(t *testing.T) {
	st := &memStore{}
	existing := model.Series{bar(day(2024, 1, 1), 1)}

	res, err := Persist(st, existing, []model.ArchiveRow{row("02-01-2024", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, st.saves)
	assert.Len(t, st.saved, 2)
	assert.Equal(t, day(2024, 1, 2), res.Watermark)
}

func TestPersist_IdenticalRefetchNoWrite(t *testing.T) {
	st := &memStore{}
	existing := model.Series{bar(day(2024, 1, 1), 1), bar(day(2024, 1, 2), 2)}
	// Same prices with a different decimal representation.
	same := model.ArchiveRow{
		Date:  "02-01-2024",
		Open:  decimal.RequireFromString("2.00"),
		High:  decimal.RequireFromString("2.0"),
		Low:   decimal.NewFromInt(2),
		Close: decimal.RequireFromString("2.000"),
	}

	res, err := Persist(st, existing, []model.ArchiveRow{same})
	assert.ErrorIs(t, err, ErrNoNewData)
	assert.Equal(t, 0, st.saves)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, 1, res.Unchanged)

	res, err = Persist(st, existing, []model.ArchiveRow{same, row("02-01-2024", 5)})
	require.NoError(t, err)
	assert.Equal(t, 1, st.saves)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, "5", st.saved[1].Close.String())
}

func TestPersist_SaveFailurePropagates(t *testing.T) {
	st := &memStore{failOn: errors.New("disk full")}

	_, err := Persist(st, nil, []model.ArchiveRow{row("02-01-2024", 2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
