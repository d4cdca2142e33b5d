package rrd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
)

// TrendMode selects what a chart draws.
type TrendMode int

// Trend modes: the raw series, a smoothed trend line, or both overlaid.
const (
	TrendNone TrendMode = iota
	TrendOnly
	TrendOverlay
)

// Line colours: blue for the raw series, red for the trend.
const (
	seriesColour = "#0400ff"
	trendColour  = "#ff0000"
)

// Default chart dimensions in pixels.
const (
	defaultChartWidth  = 600
	defaultChartHeight = 150
)

// Chart describes a single rendered PNG.
type Chart struct {
	// FileName is the output name within the charts directory, without
	// the .png extension.
	FileName string

	// Metric is the database data source to graph.
	Metric string

	// Label is the vertical axis label.
	Label string

	// Title is drawn across the top of the chart.
	Title string

	// Start is an rrdtool time expression for the left edge of the chart,
	// e.g. "end-1day".
	Start string

	// LowerBound and UpperBound pin the y-axis range when LowerBound is
	// strictly below UpperBound; otherwise the axis follows the data.
	LowerBound int
	UpperBound int

	// AutoScale enables rrdtool's alternate autoscaling when no explicit
	// bounds are set.
	AutoScale bool

	// Trend selects raw data, trend line, or both.
	Trend TrendMode
}

// trendWindows maps a chart's start expression to its moving-average
// window in seconds: two hours on the daily chart, two days on the
// four-week chart, a week on the yearly chart.
var trendWindows = map[string]int{
	"end-1day":     7200,
	"end-4weeks":   172800,
	"end-12months": 604800,
}

// defaultCharts is the standard chart set: counts per minute and dose
// rate over the last day, the last four weeks and the past year.
var defaultCharts = []Chart{
	{FileName: "24hr_cpm", Metric: dsCPM, Label: "counts per minute",
		Title: "CPM - Last 24 Hours", Start: "end-1day", Trend: TrendOverlay},
	{FileName: "24hr_svperhr", Metric: dsSvPerHr, Label: "Sv per hour",
		Title: "Sv/Hr - Last 24 Hours", Start: "end-1day", Trend: TrendOverlay},
	{FileName: "4wk_cpm", Metric: dsCPM, Label: "counts per minute",
		Title: "CPM - Last 4 Weeks", Start: "end-4weeks", Trend: TrendOverlay},
	{FileName: "4wk_svperhr", Metric: dsSvPerHr, Label: "Sv per hour",
		Title: "Sv/Hr - Last 4 Weeks", Start: "end-4weeks", Trend: TrendOverlay},
	{FileName: "12m_cpm", Metric: dsCPM, Label: "counts per minute",
		Title: "CPM - Past Year", Start: "end-12months", Trend: TrendOverlay},
	{FileName: "12m_svperhr", Metric: dsSvPerHr, Label: "Sv per hour",
		Title: "Sv/Hr - Past Year", Start: "end-12months", Trend: TrendOverlay},
}

// ChartSet renders the chart PNGs consumed by the station's web page.
//
// Rendering is offloaded to a background goroutine with a single
// in-flight slot: while one render is running, further dispatches are
// refused rather than queued, so slow renders can never pile up.
type ChartSet struct {
	binary  string
	dbPath  string
	dir     string
	width   int
	height  int
	timeout time.Duration
	charts  []Chart
	runner  commandRunner
	logger  Logger

	slot chan struct{}
	wg   sync.WaitGroup
}

// NewChartSet builds a chart generator rendering from db's file with the
// same rrdtool binary and command timeout.
func NewChartSet(db *Database, cfg config.ChartsConfig) *ChartSet {
	width := cfg.Width
	if width <= 0 {
		width = defaultChartWidth
	}
	height := cfg.Height
	if height <= 0 {
		height = defaultChartHeight
	}

	return &ChartSet{
		binary:  db.binary,
		dbPath:  db.path,
		dir:     cfg.Directory,
		width:   width,
		height:  height,
		timeout: db.timeout,
		charts:  defaultCharts,
		runner:  db.runner,
		logger:  noopLogger{},
		slot:    make(chan struct{}, 1),
	}
}

// SetLogger attaches a logger for render diagnostics.
func (s *ChartSet) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Dispatch renders the chart set on a background goroutine.
//
// Only one render may be in flight. If the previous render has not
// finished, Dispatch renders nothing and reports false.
func (s *ChartSet) Dispatch(ctx context.Context) bool {
	select {
	case s.slot <- struct{}{}:
	default:
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.slot }()
		s.GenerateAll(ctx)
	}()

	return true
}

// Wait blocks until any in-flight render finishes. Called on shutdown.
func (s *ChartSet) Wait() {
	s.wg.Wait()
}

// GenerateAll renders every chart in sequence. A failed chart is logged
// and does not stop the remaining charts.
func (s *ChartSet) GenerateAll(ctx context.Context) {
	for _, c := range s.charts {
		if err := s.generate(ctx, c); err != nil {
			s.logger.Error("chart generation failed", "chart", c.FileName, "error", err)
		}
	}
}

// generate renders one chart.
func (s *ChartSet) generate(ctx context.Context, c Chart) error {
	args := s.buildGraphArgs(c)

	s.logger.Debug("running rrdtool", "args", strings.Join(args, " "))

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	output, err := s.runner.Run(runCtx, s.binary, args...)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %v", ErrGraphFailed, s.timeout)
		}
		return fmt.Errorf("%w: %w (output: %s)", ErrGraphFailed, err, strings.TrimSpace(string(output)))
	}

	return nil
}

// buildGraphArgs assembles the rrdtool graph argument vector for one chart.
func (s *ChartSet) buildGraphArgs(c Chart) []string {
	pngPath := filepath.Join(s.dir, c.FileName+".png")

	args := []string{
		"graph", pngPath,
		"-a", "PNG",
		"-s", c.Start,
		"-e", "now",
		"-w", strconv.Itoa(s.width),
		"-h", strconv.Itoa(s.height),
	}

	// Explicit y-axis bounds win over autoscaling.
	if c.LowerBound < c.UpperBound {
		args = append(args, "-l", strconv.Itoa(c.LowerBound), "-u", strconv.Itoa(c.UpperBound), "-r")
	} else if c.AutoScale {
		args = append(args, "-A")
	}
	args = append(args, "-Y")

	args = append(args, "-v", c.Label, "-t", c.Title)

	args = append(args, fmt.Sprintf("DEF:dSeries=%s:%s:LAST", s.dbPath, c.Metric))

	// Charts whose start expression has no defined trend window fall back
	// to drawing the raw series only.
	win, hasWindow := trendWindows[c.Start]
	switch {
	case c.Trend == TrendOnly && hasWindow:
		args = append(args,
			fmt.Sprintf("CDEF:smoothed=dSeries,%d,TREND", win),
			"LINE3:smoothed"+trendColour,
		)
	case c.Trend == TrendOverlay && hasWindow:
		args = append(args,
			"LINE1:dSeries"+seriesColour,
			fmt.Sprintf("CDEF:smoothed=dSeries,%d,TREND", win),
			"LINE3:smoothed"+trendColour,
		)
	default:
		args = append(args, "LINE1:dSeries"+seriesColour)
	}

	return args
}
