package dashboard

import (
	"fmt"
	"net/url"
	"time"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/models"
)

const dateLayout = "2006-01-02"

// ViewState is everything a request asks to see. It is rebuilt from the query
// string on every request.
type ViewState struct {
	Range    models.DateRange
	Selected time.Time
	Tab      string
}

// ParseViewState reads start, end, date and tab. A range needs both endpoints;
// with only one given the full bounds are used. A malformed date or a start
// after end is an error wrapping analysis.ErrInvalidRange.
func ParseViewState(q url.Values, bounds models.DateRange) (ViewState, error) {
	v := ViewState{Range: bounds, Tab: q.Get("tab")}

	if d := q.Get("date"); d != "" {
		if t, err := time.Parse(dateLayout, d); err == nil {
			v.Selected = t
		}
	}

	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" || endStr == "" {
		return v, nil
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return v, fmt.Errorf("%w: bad start date %q", analysis.ErrInvalidRange, startStr)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return v, fmt.Errorf("%w: bad end date %q", analysis.ErrInvalidRange, endStr)
	}
	r, err := analysis.NewDateRange(start, end, bounds)
	if err != nil {
		return v, err
	}
	v.Range = r
	return v, nil
}

// Query encodes the range and optional extras for links back into the dashboard.
func (v ViewState) Query(extra ...string) string {
	q := url.Values{}
	if !v.Range.Start.IsZero() {
		q.Set("start", v.Range.Start.Format(dateLayout))
		q.Set("end", v.Range.End.Format(dateLayout))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		if extra[i+1] != "" {
			q.Set(extra[i], extra[i+1])
		}
	}
	return q.Encode()
}
