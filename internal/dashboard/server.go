package dashboard

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/imagegen"
	"github.com/lox/bikeshare/internal/insight"
	"github.com/lox/bikeshare/internal/metrics"
	"github.com/lox/bikeshare/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

const shareCardTTL = 5 * time.Minute

type Options struct {
	Port   string
	Layout Layout
	Loc    *time.Location
	// Insight is optional; /api/insight answers 503 without it.
	Insight *insight.Generator
	// Title overrides the layout title when set.
	Title string
	// Source is reported by /health.
	Source string
}

type Server struct {
	records []models.Record
	bounds  models.DateRange
	hasData bool

	port    string
	layout  Layout
	loc     *time.Location
	source  string
	started time.Time

	tmpl    *template.Template
	cards   *imagegen.Cache
	insight *insight.Generator

	warned sync.Map // weather codes already logged
}

// NewServer serves an immutable in-memory dataset. Every request filters it
// afresh from its own query parameters.
func NewServer(records []models.Record, opts Options) *Server {
	if opts.Loc == nil {
		opts.Loc = time.UTC
	}
	if len(opts.Layout.Tabs) == 0 {
		opts.Layout = DefaultLayout()
	}
	if opts.Title != "" {
		opts.Layout.Title = opts.Title
	}
	bounds, ok := analysis.Bounds(records)

	funcs := template.FuncMap{
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"date":  func(t time.Time) string { return t.Format(dateLayout) },
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		records: records,
		bounds:  bounds,
		hasData: ok,
		port:    opts.Port,
		layout:  opts.Layout,
		loc:     opts.Loc,
		source:  opts.Source,
		started: time.Now(),
		tmpl:    tmpl,
		cards:   imagegen.NewCache(shareCardTTL),
		insight: opts.Insight,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.instrument("index", s.handleIndex))
	mux.Handle("/partials/tab/{name}", s.instrument("partial_tab", s.handleTabPartial))
	mux.Handle("/api/summary", s.instrument("api_summary", s.handleAPISummary))
	mux.Handle("/api/records", s.instrument("api_records", s.handleAPIRecords))
	mux.Handle("/api/hourly", s.instrument("api_hourly", s.handleAPIHourly))
	mux.Handle("/api/insight", s.instrument("api_insight", s.handleAPIInsight))
	mux.Handle("/charts/{file}", s.instrument("chart_png", s.handleChartPNG))
	mux.Handle("/share.png", s.instrument("share_png", s.handleShareCard))
	mux.Handle("/export.xlsx", s.instrument("export_xlsx", s.handleExport))
	mux.Handle("/health", s.instrument("health", s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("dashboard: listening on :%s (%d rows)", s.port, len(s.records))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) filtered(r models.DateRange) []models.Record {
	if !s.hasData {
		return []models.Record{}
	}
	return analysis.FilterRange(s.records, r)
}

// weather aggregates by weather situation and reports codes outside 1-4.
func (s *Server) weather(records []models.Record) []models.WeatherBucket {
	buckets, unknown := weatherBuckets(records)
	for _, code := range unknown {
		metrics.UnknownWeatherCodes.WithLabelValues(strconv.Itoa(code)).Inc()
		if _, seen := s.warned.LoadOrStore(code, true); !seen {
			log.Printf("dashboard: weather code %d outside 1-4, grouped under %s", code, analysis.WeatherLabelOf(code))
		}
	}
	return buckets
}
