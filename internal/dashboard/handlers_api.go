package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/insight"
	"github.com/lox/bikeshare/internal/models"
)

const defaultRecordLimit = 500

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}

// apiState parses the request state, answering 400 itself when it is invalid.
func (s *Server) apiState(w http.ResponseWriter, r *http.Request) (ViewState, bool) {
	v, err := ParseViewState(r.URL.Query(), s.bounds)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return v, false
	}
	return v, true
}

type rangeJSON struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func newRangeJSON(r models.DateRange) rangeJSON {
	if r.Start.IsZero() {
		return rangeJSON{}
	}
	return rangeJSON{Start: r.Start.Format(dateLayout), End: r.End.Format(dateLayout)}
}

type recordJSON struct {
	Date           string  `json:"dteday"`
	Hour           int     `json:"hr"`
	WorkingDay     bool    `json:"workingday_day"`
	Holiday        bool    `json:"holiday_day"`
	WeatherSit     int     `json:"weathersit_hour"`
	CountDay       int     `json:"cnt_day"`
	CasualDay      int     `json:"casual_day"`
	RegisteredDay  int     `json:"registered_day"`
	CountHour      int     `json:"cnt_hour"`
	CasualHour     int     `json:"casual_hour"`
	RegisteredHour int     `json:"registered_hour"`
	FeelTemp       float64 `json:"atemp_original_day"`
	Humidity       float64 `json:"hum_original_day"`
	WindSpeed      float64 `json:"windspeed_original_day"`
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	rows := s.filtered(v.Range)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":    newRangeJSON(v.Range),
		"summary":  analysis.Summarize(rows, v.Range),
		"day_type": analysis.AggregateDayType(rows),
		"weather":  s.weather(rows),
	})
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	limit := defaultRecordLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows := s.filtered(v.Range)
	out := make([]recordJSON, 0, min(limit, len(rows)))
	for _, rec := range rows {
		if len(out) == limit {
			break
		}
		out = append(out, recordJSON{
			Date: rec.Date.Format(dateLayout), Hour: rec.Hour,
			WorkingDay: rec.WorkingDay, Holiday: rec.Holiday, WeatherSit: rec.WeatherSit,
			CountDay: rec.CountDay, CasualDay: rec.CasualDay, RegisteredDay: rec.RegisteredDay,
			CountHour: rec.CountHour, CasualHour: rec.CasualHour, RegisteredHour: rec.RegisteredHour,
			FeelTemp: rec.FeelTemp, Humidity: rec.Humidity, WindSpeed: rec.WindSpeed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":   newRangeJSON(v.Range),
		"total":   len(rows),
		"records": out,
	})
}

func (s *Server) handleAPIHourly(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	rows := s.filtered(v.Range)
	dates := analysis.DistinctDates(rows)

	labels := make([]string, 0, len(dates))
	for _, d := range dates {
		labels = append(labels, d.Format(dateLayout))
	}
	resp := map[string]interface{}{
		"range":  newRangeJSON(v.Range),
		"dates":  labels,
		"points": []models.HourlyPoint{},
	}
	if sel, ok := analysis.SelectDate(dates, v.Selected); ok {
		resp["selected"] = sel.Format(dateLayout)
		resp["points"] = analysis.HourlyFor(rows, sel)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIInsight(w http.ResponseWriter, r *http.Request) {
	if s.insight == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "insight generation is not configured")
		return
	}
	v, ok := s.apiState(w, r)
	if !ok {
		return
	}
	rows := s.filtered(v.Range)
	in := insight.Input{
		Summary: analysis.Summarize(rows, v.Range),
		DayType: analysis.AggregateDayType(rows),
		Weather: s.weather(rows),
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()
	text, err := s.insight.Generate(ctx, in)
	if err != nil {
		log.Printf("dashboard: insight for %s failed: %v", v.Range.Key(), err)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSONError(w, status, "insight generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range": newRangeJSON(v.Range),
		"text":  text,
	})
}

type healthStatus struct {
	Status string    `json:"status"`
	Rows   int       `json:"rows"`
	Bounds rangeJSON `json:"bounds"`
	Source string    `json:"source,omitempty"`
	Uptime string    `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := healthStatus{
		Status: "ok",
		Rows:   len(s.records),
		Bounds: newRangeJSON(s.bounds),
		Source: s.source,
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	status := http.StatusOK
	if !s.hasData {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
