package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"IndexTrend/internal/model"
)

// Columns is the persisted schema, in order.
var Columns = []string{"Date", "Open", "High", "Low", "Close"}

const dateNumFmt = "dd-mm-yyyy"

// textDateLayouts are accepted when a date cell holds text instead of a serial.
var textDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"02 Jan 2006",
}

// ErrMalformed reports a store whose header or cells do not match the schema.
var ErrMalformed = errors.New("malformed store")

// XLSXStore keeps the series in a single-sheet spreadsheet.
type XLSXStore struct {
	Path string
}

// NewXLSXStore creates a store backed by the spreadsheet at path.
func NewXLSXStore(path string) *XLSXStore {
	return &XLSXStore{Path: path}
}

// Load reads the first sheet. A missing or unreadable file is an error.
func (s *XLSXStore) Load() (model.Series, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", s.Path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", s.Path, err)
	}
	if len(rows) == 0 {
		return model.Series{}, nil
	}

	idx, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	series := make(model.Series, 0, len(rows)-1)
	for n, r := range rows[1:] {
		cell := func(col string) string {
			i := idx[col]
			if i >= len(r) {
				return ""
			}
			return strings.TrimSpace(r[i])
		}
		if cell("Date") == "" {
			continue
		}
		b, err := parseRow(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, n+2, err)
		}
		series = append(series, b)
	}
	return series, nil
}

// Save overwrites the store with the full series.
func (s *XLSXStore) Save(series model.Series) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, b := range series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			b.Date,
			b.Open.InexactFloat64(),
			b.High.InexactFloat64(),
			b.Low.InexactFloat64(),
			b.Close.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(series) > 0 {
		numFmt := dateNumFmt
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return fmt.Errorf("date style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(1, len(series)+1)
		if err := f.SetCellStyle(sheet, "A2", last, style); err != nil {
			return fmt.Errorf("apply date style: %w", err)
		}
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(s.Path))
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(Columns))
	for i, h := range header {
		for _, c := range Columns {
			if strings.EqualFold(strings.TrimSpace(h), c) {
				idx[c] = i
			}
		}
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: column %q missing", ErrMalformed, c)
		}
	}
	return idx, nil
}

func parseRow(cell func(string) string) (model.DailyBar, error) {
	d, err := parseDateCell(cell("Date"))
	if err != nil {
		return model.DailyBar{}, err
	}
	b := model.DailyBar{Date: d}
	for _, p := range []struct {
		col string
		dst *decimal.Decimal
	}{
		{"Open", &b.Open},
		{"High", &b.High},
		{"Low", &b.Low},
		{"Close", &b.Close},
	} {
		v, err := decimal.NewFromString(cell(p.col))
		if err != nil {
			return model.DailyBar{}, fmt.Errorf("column %s: %w", p.col, err)
		}
		*p.dst = v
	}
	return b, nil
}

func parseDateCell(v string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return model.DateOnly(t.Round(24 * time.Hour)), nil
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return model.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}
