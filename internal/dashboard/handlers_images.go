package dashboard

import (
	"bytes"
	"log"
	"net/http"
	"strings"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/export"
	"github.com/lox/bikeshare/internal/imagegen"
	"github.com/lox/bikeshare/internal/metrics"
)

func servePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}

// handleChartPNG renders /charts/{daily,hourly,daytype,weather}.png.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	rows := s.filtered(v.Range)

	var (
		data []byte
		err  error
	)
	switch name {
	case "daily":
		data, err = imagegen.RenderDailyPNG(analysis.DailyTrend(rows))
	case "hourly":
		sel, found := analysis.SelectDate(analysis.DistinctDates(rows), v.Selected)
		if !found {
			data, err = imagegen.RenderEmpty("Hourly Count", "No dates in range")
			break
		}
		data, err = imagegen.RenderHourlyPNG(sel, analysis.HourlyFor(rows, sel))
	case "daytype":
		data, err = imagegen.RenderDayTypePNG(analysis.AggregateDayType(rows))
	case "weather":
		data, err = imagegen.RenderWeatherPNG(s.weather(rows))
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("dashboard: render %s chart: %v", name, err)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}
	servePNG(w, data)
}

func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	key := v.Range.Key()
	if data, ok := s.cards.Get(key); ok {
		metrics.ImageCacheHits.WithLabelValues("hit").Inc()
		servePNG(w, data)
		return
	}
	metrics.ImageCacheHits.WithLabelValues("miss").Inc()

	data, err := imagegen.RenderShareCard(analysis.Summarize(s.filtered(v.Range), v.Range))
	if err != nil {
		log.Printf("dashboard: render share card: %v", err)
		http.Error(w, "share card rendering failed", http.StatusInternalServerError)
		return
	}
	s.cards.Set(key, data)
	servePNG(w, data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	rows := s.filtered(v.Range)

	var buf bytes.Buffer
	err := export.Workbook(&buf, export.Data{
		Range:   v.Range,
		Records: rows,
		Daily:   analysis.DailyTrend(rows),
		DayType: analysis.AggregateDayType(rows),
		Weather: s.weather(rows),
	})
	if err != nil {
		log.Printf("dashboard: export %s: %v", v.Range.Key(), err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(v.Range)+`"`)
	w.Write(buf.Bytes())
}
