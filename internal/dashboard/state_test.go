package dashboard

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var testBounds = models.DateRange{Start: day("2011-01-01"), End: day("2012-12-31")}

func TestParseViewState(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{"none", "", "2011-01-01", "2012-12-31", false},
		{"both", "start=2011-03-01&end=2011-03-31", "2011-03-01", "2011-03-31", false},
		{"only start", "start=2011-03-01", "2011-01-01", "2012-12-31", false},
		{"only end", "end=2011-03-01", "2011-01-01", "2012-12-31", false},
		{"clamped", "start=2010-06-01&end=2013-06-01", "2011-01-01", "2012-12-31", false},
		{"single day", "start=2011-05-05&end=2011-05-05", "2011-05-05", "2011-05-05", false},
		{"reversed", "start=2011-03-31&end=2011-03-01", "2011-01-01", "2012-12-31", true},
		{"bad start", "start=March&end=2011-03-01", "2011-01-01", "2012-12-31", true},
		{"bad end", "start=2011-03-01&end=2011-13-01", "2011-01-01", "2012-12-31", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			v, err := ParseViewState(q, testBounds)
			if tt.wantErr {
				if !errors.Is(err, analysis.ErrInvalidRange) {
					t.Errorf("err = %v, want ErrInvalidRange", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := v.Range.Start.Format(dateLayout); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := v.Range.End.Format(dateLayout); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestParseViewState_SelectedAndTab(t *testing.T) {
	q, _ := url.ParseQuery("date=2011-02-03&tab=hourly")
	v, err := ParseViewState(q, testBounds)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Selected.Equal(day("2011-02-03")) || v.Tab != "hourly" {
		t.Errorf("state = %+v", v)
	}

	q, _ = url.ParseQuery("date=yesterday")
	v, _ = ParseViewState(q, testBounds)
	if !v.Selected.IsZero() {
		t.Errorf("malformed date should be ignored, got %v", v.Selected)
	}
}

func TestViewStateQuery(t *testing.T) {
	v := ViewState{Range: models.DateRange{Start: day("2011-01-01"), End: day("2011-01-31")}}
	got := v.Query("tab", "weather", "date", "")
	for _, want := range []string{"start=2011-01-01", "end=2011-01-31", "tab=weather"} {
		if !strings.Contains(got, want) {
			t.Errorf("Query() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "date=") {
		t.Errorf("empty values should be dropped: %q", got)
	}
	if (ViewState{}).Query() != "" {
		t.Error("zero range should encode to empty query")
	}
}
