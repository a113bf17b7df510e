package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/dashboard"
	"github.com/lox/bikeshare/internal/dataset"
	"github.com/lox/bikeshare/internal/insight"
	"github.com/lox/bikeshare/internal/metrics"
	"github.com/lox/bikeshare/internal/models"
	"github.com/lox/bikeshare/internal/store"
)

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name='env-file',help='Load environment variables from a .env file.'"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Serve the dashboard (default)."`
	Import  ImportCmd  `cmd:"" help:"Load a CSV source into the SQLite database."`
	Summary SummaryCmd `cmd:"" help:"Print totals and breakdowns for a date range."`
}

// DataFlags select where records come from: a CSV source or an imported database.
type DataFlags struct {
	Data string `env:"BIKESHARE_DATA" help:"CSV source: path, file://, http(s):// or ftp:// URL."`
	DB   string `env:"BIKESHARE_DB" help:"SQLite database written by import, used when --data is empty."`
}

func (f DataFlags) load(ctx context.Context) ([]models.Record, string, error) {
	switch {
	case f.Data != "":
		records, err := dataset.Load(ctx, f.Data)
		return records, f.Data, err
	case f.DB != "":
		st, err := store.Open(f.DB)
		if err != nil {
			return nil, "", err
		}
		defer st.Close()

		records, err := st.Records(ctx)
		if err != nil {
			return nil, "", err
		}
		source := f.DB
		if imp, err := st.LastImport(ctx); err == nil && imp != nil {
			source = imp.Source
			log.Printf("store: %d rows imported from %s at %s", imp.Rows, imp.Source, imp.ImportedAt.Format(time.RFC3339))
		}
		return records, source, nil
	default:
		return nil, "", errors.New("one of --data or --db is required")
	}
}

type ServeCmd struct {
	DataFlags `embed:""`

	Port    string `env:"PORT" default:"8080" help:"HTTP server port."`
	Layout  string `env:"BIKESHARE_LAYOUT" help:"YAML tab layout file."`
	TZ      string `env:"BIKESHARE_TZ" default:"UTC" help:"Timezone for rendered timestamps."`
	Insight bool   `help:"Enable LLM insights (requires OPENAI_API_KEY)."`
	Model   string `help:"Chat model used for insights."`
}

func (c *ServeCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC: %v", c.TZ, err)
		loc = time.UTC
	}

	layout, err := dashboard.LoadLayout(c.Layout)
	if err != nil {
		return err
	}

	records, source, err := c.load(ctx)
	if err != nil {
		return err
	}

	var gen *insight.Generator
	if c.Insight {
		if gen, err = insight.NewGenerator(c.Model); err != nil {
			log.Printf("Insight generation disabled: %v", err)
		}
	}

	server := dashboard.NewServer(records, dashboard.Options{
		Port:    c.Port,
		Layout:  layout,
		Loc:     loc,
		Insight: gen,
		Source:  source,
	})
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type ImportCmd struct {
	Source string `arg:"" help:"CSV source: path, file://, http(s):// or ftp:// URL."`
	DB     string `env:"BIKESHARE_DB" default:"data/bikeshare.db" help:"SQLite database path."`
}

func (c *ImportCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	records, err := dataset.Load(ctx, c.Source)
	if err != nil {
		return err
	}
	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ReplaceRecords(ctx, c.Source, records); err != nil {
		return err
	}
	log.Printf("store: imported %s rows into %s", humanize.Comma(int64(len(records))), c.DB)
	return nil
}

type SummaryCmd struct {
	DataFlags `embed:""`

	Start string `help:"First date (YYYY-MM-DD), defaults to the first date in the data."`
	End   string `help:"Last date (YYYY-MM-DD), defaults to the last date in the data."`
	JSON  bool   `name:"json" help:"Print JSON instead of a table."`
}

type summaryOutput struct {
	Summary models.Summary         `json:"summary"`
	DayType []models.DayTypeBucket `json:"day_type"`
	Weather []models.WeatherBucket `json:"weather"`
}

func (c *SummaryCmd) Run() error {
	ctx := context.Background()
	records, _, err := c.load(ctx)
	if err != nil {
		return err
	}
	bounds, ok := analysis.Bounds(records)
	if !ok {
		return errors.New("dataset is empty")
	}

	r := bounds
	if c.Start != "" || c.End != "" {
		start, end := bounds.Start, bounds.End
		if c.Start != "" {
			if start, err = time.Parse("2006-01-02", c.Start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
		}
		if c.End != "" {
			if end, err = time.Parse("2006-01-02", c.End); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
		}
		if r, err = analysis.NewDateRange(start, end, bounds); err != nil {
			return err
		}
	}

	rows := analysis.FilterRange(records, r)
	out := summaryOutput{
		Summary: analysis.Summarize(rows, r),
		DayType: analysis.AggregateDayType(rows),
		Weather: summaryWeather(rows),
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printSummary(out)
}

// summaryWeather aggregates weather buckets, reporting codes outside 1-4.
func summaryWeather(rows []models.Record) []models.WeatherBucket {
	buckets := analysis.AggregateWeather(rows)
	for _, code := range analysis.UnknownWeatherCodes(buckets) {
		metrics.UnknownWeatherCodes.WithLabelValues(strconv.Itoa(code)).Inc()
		log.Printf("summary: weather code %d outside 1-4, grouped under %s", code, analysis.WeatherLabelOf(code))
	}
	return buckets
}

func printSummary(out summaryOutput) error {
	s := out.Summary
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s to %s\t%d days\t%s rows\t\n",
		s.Range.Start.Format("2006-01-02"), s.Range.End.Format("2006-01-02"), s.Days, humanize.Comma(int64(s.Rows)))
	fmt.Fprintf(tw, "\t\t\t\n")
	fmt.Fprintf(tw, "day type\tcnt_day\tcasual_day\tregistered_day\t\n")
	for _, b := range out.DayType {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", b.DayType,
			humanize.Comma(int64(b.Count)), humanize.Comma(int64(b.Casual)), humanize.Comma(int64(b.Registered)))
	}
	fmt.Fprintf(tw, "\t\t\t\n")
	fmt.Fprintf(tw, "weather\tcnt_hour\tcasual_hour\tregistered_hour\t\n")
	for _, b := range out.Weather {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", b.Label,
			humanize.Comma(int64(b.Count)), humanize.Comma(int64(b.Casual)), humanize.Comma(int64(b.Registered)))
	}
	return tw.Flush()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bikeshare"),
		kong.Description("Bike sharing rental dashboard."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
