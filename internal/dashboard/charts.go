package dashboard

import (
	"fmt"
	"html/template"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/models"
)

const (
	colorCasual     = "#f28e2b"
	colorRegistered = "#4e79a7"
	chartHeight     = "380px"
)

type snippetRenderer interface {
	RenderSnippet() render.ChartSnippet
}

// renderSnippet returns the chart div and its script for inline embedding.
func renderSnippet(c snippetRenderer) template.HTML {
	s := c.RenderSnippet()
	return template.HTML(s.Element + "\n" + s.Script)
}

func globals(id, title, xName, xType string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight, ChartID: id}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: xType}),
	}
}

func seriesColor(c string) charts.SeriesOpts {
	return charts.WithItemStyleOpts(opts.ItemStyle{Color: c})
}

func dailyChart(points []models.DailyPoint) template.HTML {
	line := charts.NewLine()
	line.SetGlobalOptions(globals("daily-chart", "Daily rentals", "Date", "category")...)

	labels := make([]string, 0, len(points))
	registered := make([]opts.LineData, 0, len(points))
	casual := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Date.Format(dateLayout))
		registered = append(registered, opts.LineData{Value: p.Registered})
		casual = append(casual, opts.LineData{Value: p.Casual})
	}
	line.SetXAxis(labels).
		AddSeries("Registered", registered, seriesColor(colorRegistered)).
		AddSeries("Casual", casual, seriesColor(colorCasual))
	return renderSnippet(line)
}

func hourlyChart(date string, points []models.HourlyPoint) template.HTML {
	line := charts.NewLine()
	line.SetGlobalOptions(globals("hourly-chart", "Hourly rentals on "+date, "Hour", "category")...)

	labels := make([]string, 0, len(points))
	registered := make([]opts.LineData, 0, len(points))
	casual := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("%02d", p.Hour))
		registered = append(registered, opts.LineData{Value: p.Registered})
		casual = append(casual, opts.LineData{Value: p.Casual})
	}
	line.SetXAxis(labels).
		AddSeries("Registered", registered, seriesColor(colorRegistered)).
		AddSeries("Casual", casual, seriesColor(colorCasual))
	return renderSnippet(line)
}

func dayTypeChart(buckets []models.DayTypeBucket) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globals("daytype-chart", "Rentals by day type", "", "category")...)

	labels := make([]string, 0, len(buckets))
	casual := make([]opts.BarData, 0, len(buckets))
	registered := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, string(b.DayType))
		casual = append(casual, opts.BarData{Value: b.Casual})
		registered = append(registered, opts.BarData{Value: b.Registered})
	}
	bar.SetXAxis(labels).
		AddSeries("Casual", casual, seriesColor(colorCasual)).
		AddSeries("Registered", registered, seriesColor(colorRegistered))
	return renderSnippet(bar)
}

func weatherChart(buckets []models.WeatherBucket) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globals("weather-chart", "Rentals by weather", "", "category")...)

	labels := make([]string, 0, len(buckets))
	casual := make([]opts.BarData, 0, len(buckets))
	registered := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		label := string(b.Label)
		if !analysis.KnownWeatherCode(b.Code) {
			label = fmt.Sprintf("%s (%d)", label, b.Code)
		}
		labels = append(labels, label)
		casual = append(casual, opts.BarData{Value: b.Casual})
		registered = append(registered, opts.BarData{Value: b.Registered})
	}
	bar.SetXAxis(labels).
		AddSeries("Casual", casual, seriesColor(colorCasual)).
		AddSeries("Registered", registered, seriesColor(colorRegistered))
	return renderSnippet(bar)
}

var covariateTitles = map[string]string{
	analysis.CovariateFeelTemp:  "Feels-like temperature",
	analysis.CovariateHumidity:  "Humidity",
	analysis.CovariateWindSpeed: "Wind speed",
}

func correlationChart(c models.Correlation) template.HTML {
	title := covariateTitles[c.Covariate]
	if title == "" {
		title = c.Covariate
	}
	if c.Valid {
		title = fmt.Sprintf("%s (r = %.2f)", title, c.Coefficient)
	}

	scatter := charts.NewScatter()
	g := globals("corr-"+c.Covariate, title, c.Covariate, "value")
	g = append(g,
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cnt_day", Type: "value"}),
	)
	scatter.SetGlobalOptions(g...)

	data := make([]opts.ScatterData, 0, len(c.Points))
	for _, p := range c.Points {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	scatter.AddSeries("Days", data, seriesColor(colorRegistered))
	return renderSnippet(scatter)
}
