package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
	"IndexTrend/internal/transport"
)

// ArchiveDateLayout names the daily archive files, e.g. 14072023.
const ArchiveDateLayout = "02012006"

// Source column names in the archive CSV.
const (
	colIndexName = "Index Name"
	colIndexDate = "Index Date"
	colOpen      = "Open Index Value"
	colHigh      = "High Index Value"
	colLow       = "Low Index Value"
	colClose     = "Closing Index Value"
)

var errColumnsMissing = errors.New("archive csv: required columns missing")

// archiveHeaders mimic a browser; the archive rejects bare clients.
var archiveHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-IN,en;q=0.9",
	"Referer":         "https://www.nseindia.com/all-reports",
	"DNT":             "1",
}

// ArchiveFetcher implements Fetcher against a date-stamped CSV archive.
type ArchiveFetcher struct {
	BaseURL   string
	IndexName string
	CacheDir  string
	Client    *http.Client
	Limiter   *rate.Limiter
}

// NewArchiveFetcher creates a fetcher with an explicit timeout and optional proxy.
// rps <= 0 disables request pacing.
func NewArchiveFetcher(baseURL, indexName, cacheDir, proxyURL string, timeout time.Duration, rps float64) *ArchiveFetcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &ArchiveFetcher{
		BaseURL:   baseURL,
		IndexName: indexName,
		CacheDir:  cacheDir,
		Client:    transport.NewClient(proxyURL, timeout),
		Limiter:   limiter,
	}
}

func (f *ArchiveFetcher) Name() string { return "archive" }

// URL returns the archive location for date.
func (f *ArchiveFetcher) URL(date time.Time) string {
	return f.BaseURL + date.Format(ArchiveDateLayout) + ".csv"
}

// Fetch retrieves one day. Weekends are skipped without touching the network.
func (f *ArchiveFetcher) Fetch(ctx context.Context, date time.Time) model.FetchOutcome {
	if !IsBusinessDay(date) {
		return model.FetchOutcome{Kind: model.OutcomeSkipped, Date: date, Reason: model.SkipReasonWeekend}
	}
	transportErr := func(err error) model.FetchOutcome {
		return model.FetchOutcome{Kind: model.OutcomeTransportError, Date: date, Err: err}
	}

	if err := f.Limiter.Wait(ctx); err != nil {
		return transportErr(fmt.Errorf("rate limit wait: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(date), nil)
	if err != nil {
		return transportErr(err)
	}
	for k, v := range archiveHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return transportErr(fmt.Errorf("archive fetch: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(fmt.Errorf("archive read body: %w", err))
	}
	f.cache(date, body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.FetchOutcome{Kind: model.OutcomeHTTPError, Date: date, Status: resp.StatusCode, Payload: body}
	}

	row, err := ParseArchive(body, f.IndexName)
	if err != nil {
		return transportErr(fmt.Errorf("archive decode: %w", err))
	}
	return model.FetchOutcome{Kind: model.OutcomeSuccess, Date: date, Row: row}
}

// cache keeps the raw payload next to the store for auditing. Best effort.
func (f *ArchiveFetcher) cache(date time.Time, body []byte) {
	if f.CacheDir == "" {
		return
	}
	path := filepath.Join(f.CacheDir, date.Format(ArchiveDateLayout)+".csv")
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		logger.Warnf("cache dir %s: %v", f.CacheDir, err)
		return
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		logger.Warnf("cache write %s: %v", path, err)
	}
}

// ParseArchive extracts indexName's row from an archive CSV and renames its
// fields onto the canonical columns. A nil row with nil error means the index
// is absent from the table.
func ParseArchive(data []byte, indexName string) (*model.ArchiveRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errColumnsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	need := []string{colIndexName, colIndexDate, colOpen, colHigh, colLow, colClose}
	for _, c := range need {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %q", errColumnsMissing, c)
		}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		field := func(name string) string {
			i := cols[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if !strings.EqualFold(field(colIndexName), indexName) {
			continue
		}

		row := &model.ArchiveRow{Date: field(colIndexDate)}
		prices := []struct {
			col string
			dst *decimal.Decimal
		}{
			{colOpen, &row.Open},
			{colHigh, &row.High},
			{colLow, &row.Low},
			{colClose, &row.Close},
		}
		for _, p := range prices {
			v, err := decimal.NewFromString(strings.ReplaceAll(field(p.col), ",", ""))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", p.col, err)
			}
			*p.dst = v
		}
		return row, nil
	}
}
