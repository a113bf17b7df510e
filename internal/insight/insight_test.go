package insight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lox/bikeshare/internal/models"
)

type fakeCompleter struct {
	calls atomic.Int32
	text  string
	err   error
	delay time.Duration
	user  atomic.Value
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	f.user.Store(user)
	time.Sleep(f.delay)
	return f.text, f.err
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func testInput() Input {
	return Input{
		Summary: models.Summary{
			Range:       models.DateRange{Start: day("2011-01-01"), End: day("2011-01-31")},
			Rows:        700,
			Days:        31,
			TotalHourly: 38189,
			Casual:      3073,
			Registered:  35116,
			BusiestDate: day("2011-01-13"),
			BusiestDay:  2046,
		},
		DayType: []models.DayTypeBucket{
			{DayType: models.DayTypeWeekend, Count: 100, Casual: 30, Registered: 70},
			{WorkingDay: true, DayType: models.DayTypeWorking, Count: 200, Casual: 50, Registered: 150},
		},
		Weather: []models.WeatherBucket{
			{Code: 1, Label: models.WeatherClearCloudy, Count: 30000, Casual: 2500, Registered: 27500},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testInput())
	for _, want := range []string{
		"2011-01-01 to 2011-01-31",
		"31 days",
		"Total rentals: 38,189",
		"Busiest day: 2011-01-13 with 2,046",
		"- weekend: 100",
		"- working: 200",
		"- clear_cloudy: 30,000",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	in := Input{Summary: models.Summary{Range: models.DateRange{Start: day("2011-01-01"), End: day("2011-01-01")}}}
	p := BuildPrompt(in)
	if strings.Contains(p, "By day type") || strings.Contains(p, "By weather") || strings.Contains(p, "Busiest") {
		t.Errorf("unexpected sections:\n%s", p)
	}
}

func TestGenerate_CachesPerRange(t *testing.T) {
	fc := &fakeCompleter{text: "  Working days dominate.  "}
	g := NewWithCompleter(fc, time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	in := testInput()
	text, err := g.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Working days dominate." {
		t.Errorf("text = %q", text)
	}
	if _, err := g.Generate(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if got := fc.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if u, _ := fc.user.Load().(string); !strings.Contains(u, "Total rentals") {
		t.Errorf("completer got unexpected prompt %q", u)
	}

	other := testInput()
	other.Summary.Range.End = day("2011-02-28")
	if _, err := g.Generate(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if got := fc.calls.Load(); got != 2 {
		t.Errorf("calls after new range = %d, want 2", got)
	}

	now = now.Add(2 * time.Hour)
	if _, err := g.Generate(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if got := fc.calls.Load(); got != 3 {
		t.Errorf("calls after expiry = %d, want 3", got)
	}
}

func TestComplete_ReportsEntryCachedByEarlierFlight(t *testing.T) {
	fc := &fakeCompleter{text: "fresh"}
	g := NewWithCompleter(fc, time.Hour)
	in := testInput()
	key := in.Summary.Range.Key()

	res, err := g.complete(context.Background(), key, in)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.cached || res.text != "fresh" {
		t.Errorf("first result = %+v, want generated %q", res, "fresh")
	}

	// Another flight fills the cache after Generate's first lookup missed.
	g.mu.Lock()
	g.cache[key] = entry{text: "from earlier flight", expiresAt: g.now().Add(time.Hour)}
	g.mu.Unlock()

	res, err = g.complete(context.Background(), key, in)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !res.cached || res.text != "from earlier flight" {
		t.Errorf("second result = %+v, want cached entry", res)
	}
	if got := fc.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGenerate_CollapsesConcurrentRequests(t *testing.T) {
	fc := &fakeCompleter{text: "ok", delay: 50 * time.Millisecond}
	g := NewWithCompleter(fc, time.Hour)
	in := testInput()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Generate(context.Background(), in); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := fc.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := NewWithCompleter(&fakeCompleter{text: "   "}, time.Hour)
	if _, err := g.Generate(context.Background(), testInput()); !errors.Is(err, ErrNoInsight) {
		t.Errorf("blank response err = %v, want ErrNoInsight", err)
	}

	boom := errors.New("boom")
	fc := &fakeCompleter{err: boom}
	g = NewWithCompleter(fc, time.Hour)
	if _, err := g.Generate(context.Background(), testInput()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := g.Generate(context.Background(), testInput()); err == nil {
		t.Error("errors must not be cached as successes")
	}
	if got := fc.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestGenerate_StripsMarkup(t *testing.T) {
	g := NewWithCompleter(&fakeCompleter{text: "<p>Busy <b>weekends</b> &amp; holidays</p>"}, time.Hour)
	text, err := g.Generate(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "<") || !strings.Contains(text, "weekends & holidays") {
		t.Errorf("text = %q", text)
	}
}

func TestNewGenerator_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewGenerator(""); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}
}
