package chart

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"IndexTrend/internal/calculator"
	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
)

// Fixed artifact base names, written into the store's directory.
const (
	FullName     = "plot"
	TrailingName = "plot_last_year"
)

const (
	colorClose = "#3b82f6"
	colorAvg   = "#f59e0b"

	widthPx  = 1100
	heightPx = 650
)

// ScreenshotFunc turns a chart page into a JPEG of the given viewport.
type ScreenshotFunc func(ctx context.Context, html []byte, width, height int) ([]byte, error)

// Renderer draws the close and composite trend charts.
type Renderer struct {
	OutDir string
	// Image renders each chart page to JPEG; the image is the artifact and the
	// page is kept next to it. Without it only the pages are written.
	Image      bool
	Screenshot ScreenshotFunc
	// Window is the trailing chart's row count.
	Window int
}

// NewRenderer creates a renderer writing into outDir, screenshotting with
// headless Chrome when image is set.
func NewRenderer(outDir string, image bool) *Renderer {
	return &Renderer{OutDir: outDir, Image: image, Screenshot: screenshot, Window: calculator.DaysLastYear}
}

// Title is the chart heading: render date and as-of date of the data.
func Title(now, asOf time.Time) string {
	return fmt.Sprintf("Updated: %s   Data upto: %s", now.Format(model.DateLayout), asOf.Format(model.DateLayout))
}

// Render writes the full-history and trailing-year charts, overwriting any
// previous ones. With Image set a failed screenshot fails the render.
func (r *Renderer) Render(ctx context.Context, points []model.TrendPoint, asOf, now time.Time) ([]model.TrendArtifact, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("render: %w", calculator.ErrInsufficientData)
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	title := Title(now, asOf)
	jobs := []struct {
		scope  model.ArtifactScope
		name   string
		points []model.TrendPoint
	}{
		{model.ScopeFull, FullName, points},
		{model.ScopeTrailingYear, TrailingName, calculator.TrailingWindow(points, r.Window)},
	}

	var artifacts []model.TrendArtifact
	for _, j := range jobs {
		html, err := renderHTML(j.points, title)
		if err != nil {
			return artifacts, fmt.Errorf("render %s: %w", j.scope, err)
		}
		page := filepath.Join(r.OutDir, j.name+".html")
		if err := os.WriteFile(page, html, 0o644); err != nil {
			return artifacts, fmt.Errorf("write %s: %w", page, err)
		}
		art := model.TrendArtifact{Scope: j.scope, AsOf: asOf, Path: page, Page: page}

		if r.Image {
			img, err := r.Screenshot(ctx, html, widthPx+40, heightPx+40)
			if err != nil {
				return artifacts, fmt.Errorf("screenshot %s: %w", j.scope, err)
			}
			art.Path = filepath.Join(r.OutDir, j.name+".jpg")
			if err := os.WriteFile(art.Path, img, 0o644); err != nil {
				return artifacts, fmt.Errorf("write %s: %w", art.Path, err)
			}
		}
		logger.Infof("chart written: %s", art.Path)
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

func renderHTML(points []model.TrendPoint, title string) ([]byte, error) {
	high, low, err := calculator.ValueRange(points)
	if err != nil {
		return nil, err
	}
	padding := (high - low) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(high)*0.01)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%dpx", widthPx),
			Height:    fmt.Sprintf("%dpx", heightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  "Close",
			Scale: opts.Bool(true),
			Min:   round(low-padding, 2),
			Max:   round(high+padding, 2),
		}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	xs := make([]string, len(points))
	closes := make([]opts.LineData, len(points))
	avgs := make([]opts.LineData, len(points))
	for i, p := range points {
		xs[i] = p.Date.Format(model.DateLayout)
		closes[i] = opts.LineData{Value: round(p.Close, 2)}
		avgs[i] = opts.LineData{Value: round(p.Avg, 2)}
	}
	line.SetXAxis(xs).
		AddSeries("Close", closes, charts.WithLineStyleOpts(opts.LineStyle{Color: colorClose, Width: 1})).
		AddSeries("avg", avgs, charts.WithLineStyleOpts(opts.LineStyle{Color: colorAvg, Width: 2}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// screenshot loads the chart page in headless Chrome and captures it as JPEG.
func screenshot(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&shot, 90),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return shot, nil
}

func round(val float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
