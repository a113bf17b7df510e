package dashboard

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/metrics"
	"github.com/lox/bikeshare/internal/models"
)

type tabLink struct {
	Name   string
	Title  string
	Href   string
	Active bool
}

// TabView is what tab.html renders for one tab.
type TabView struct {
	Tab         Tab
	RangeNotice string
	Notice      string
	Charts      []template.HTML
	Table       *Table
	ImageURL    string

	// hourly drill-down
	Dates    []string
	Selected string
	Start    string
	End      string
}

type pageData struct {
	Title      string
	Intro      string
	HasData    bool
	Min, Max   string
	Start, End string
	Notice     string
	Summary    models.Summary
	Tabs       []tabLink
	Active     *TabView
	ShareURL   string
	ExportURL  string
	InsightURL string
	Insight    bool
	RenderedAt string
}

// pageState parses the request for HTML routes. An invalid range falls back
// to the full bounds and is reported as a notice.
func (s *Server) pageState(r *http.Request) (ViewState, string) {
	v, err := ParseViewState(r.URL.Query(), s.bounds)
	if err != nil {
		v.Range = s.bounds
		return v, fmt.Sprintf("Invalid date range (%v); showing all dates.", err)
	}
	return v, ""
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	v, notice := s.pageState(r)

	active, ok := s.layout.Tab(v.Tab)
	if !ok {
		active = s.layout.Tabs[0]
	}
	tv, err := s.buildTab(active, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:      s.layout.Title,
		Intro:      s.layout.Intro,
		HasData:    s.hasData,
		Notice:     notice,
		Summary:    analysis.Summarize(s.filtered(v.Range), v.Range),
		Active:     tv,
		ShareURL:   "/share.png?" + v.Query(),
		ExportURL:  "/export.xlsx?" + v.Query(),
		InsightURL: "/api/insight?" + v.Query(),
		Insight:    s.insight != nil,
		RenderedAt: time.Now().In(s.loc).Format("2006-01-02 15:04 MST"),
	}
	if s.hasData {
		data.Min, data.Max = s.bounds.Start.Format(dateLayout), s.bounds.End.Format(dateLayout)
		data.Start, data.End = v.Range.Start.Format(dateLayout), v.Range.End.Format(dateLayout)
	}
	for _, t := range s.layout.Tabs {
		data.Tabs = append(data.Tabs, tabLink{
			Name:   t.Name,
			Title:  t.Title,
			Href:   "/?" + v.Query("tab", t.Name),
			Active: t.Name == active.Name,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleTabPartial(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.layout.Tab(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	v, notice := s.pageState(r)
	tv, err := s.buildTab(tab, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tv.RangeNotice = notice

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "tab.html", tv); err != nil {
		log.Printf("template error: %v", err)
	}
}

// buildTab filters the dataset for v and renders the charts and table of one tab.
func (s *Server) buildTab(tab Tab, v ViewState) (*TabView, error) {
	metrics.TabViews.WithLabelValues(tab.Name).Inc()

	rows := s.filtered(v.Range)
	tv := &TabView{Tab: tab}
	if len(rows) == 0 {
		tv.Notice = "No rows in the selected range."
	}

	var (
		table Table
		err   error
	)
	switch tab.Kind {
	case KindDaily:
		tv.Charts = []template.HTML{dailyChart(analysis.DailyTrend(rows))}
		tv.ImageURL = "/charts/daily.png?" + v.Query()
		table, err = recordTable(rows)

	case KindHourly:
		dates := analysis.DistinctDates(rows)
		sel, ok := analysis.SelectDate(dates, v.Selected)
		if !ok {
			tv.Notice = "No dates in range."
			table, err = recordTable(nil)
			break
		}
		for _, d := range dates {
			tv.Dates = append(tv.Dates, d.Format(dateLayout))
		}
		tv.Selected = sel.Format(dateLayout)
		tv.Start, tv.End = v.Range.Start.Format(dateLayout), v.Range.End.Format(dateLayout)
		tv.Charts = []template.HTML{hourlyChart(tv.Selected, analysis.HourlyFor(rows, sel))}
		tv.ImageURL = "/charts/hourly.png?" + v.Query("date", tv.Selected)
		table, err = recordTable(analysis.FilterRange(rows, models.DateRange{Start: sel, End: sel}))

	case KindWorkingHoliday:
		buckets := analysis.AggregateDayType(rows)
		tv.Charts = []template.HTML{dayTypeChart(buckets)}
		tv.ImageURL = "/charts/daytype.png?" + v.Query()
		table, err = dayTypeTable(buckets)

	case KindWeather:
		buckets := s.weather(rows)
		tv.Charts = []template.HTML{weatherChart(buckets)}
		tv.ImageURL = "/charts/weather.png?" + v.Query()
		table, err = weatherTable(buckets)

	case KindCorrelation:
		var cs []models.Correlation
		for _, cov := range analysis.Covariates {
			c, cerr := analysis.Correlate(rows, cov)
			if cerr != nil {
				return nil, cerr
			}
			cs = append(cs, c)
			tv.Charts = append(tv.Charts, correlationChart(c))
		}
		table, err = correlationTable(cs)

	default:
		return nil, fmt.Errorf("tab %s: unknown kind %q", tab.Name, tab.Kind)
	}
	if err != nil {
		return nil, err
	}
	if !tab.HideTable {
		tv.Table = &table
	}
	return tv, nil
}
