package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type TabKind string

const (
	KindDaily          TabKind = "daily"
	KindHourly         TabKind = "hourly"
	KindWorkingHoliday TabKind = "working_holiday"
	KindWeather        TabKind = "weather"
	KindCorrelation    TabKind = "correlation"
)

var tabKinds = map[TabKind]string{
	KindDaily:          "Daily Count",
	KindHourly:         "Hourly Count",
	KindWorkingHoliday: "Working Holiday",
	KindWeather:        "Weather",
	KindCorrelation:    "Correlation",
}

type Tab struct {
	Name  string  `yaml:"name"`
	Title string  `yaml:"title"`
	Kind  TabKind `yaml:"kind"`
	// HideTable drops the raw table under the chart.
	HideTable bool `yaml:"hide_table"`
}

type Layout struct {
	Title string `yaml:"title"`
	Intro string `yaml:"intro"`
	Tabs  []Tab  `yaml:"tabs"`
}

func DefaultLayout() Layout {
	l := Layout{
		Title: "Bike Sharing Dashboard",
		Intro: "Select the tab to view the data",
	}
	for _, k := range []TabKind{KindDaily, KindHourly, KindWorkingHoliday, KindWeather, KindCorrelation} {
		l.Tabs = append(l.Tabs, Tab{Name: string(k), Title: tabKinds[k], Kind: k})
	}
	return l
}

// LoadLayout reads a YAML layout file. An empty path yields the default layout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes and validates a layout. Unknown fields and tab kinds are
// rejected; missing names and titles fall back to the kind.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode: %w", err)
	}

	def := DefaultLayout()
	if l.Title == "" {
		l.Title = def.Title
	}
	if len(l.Tabs) == 0 {
		return Layout{}, errors.New("no tabs defined")
	}

	seen := make(map[string]bool)
	for i := range l.Tabs {
		t := &l.Tabs[i]
		title, ok := tabKinds[t.Kind]
		if !ok {
			return Layout{}, fmt.Errorf("tab %d: unknown kind %q", i, t.Kind)
		}
		if t.Name == "" {
			t.Name = string(t.Kind)
		}
		if t.Title == "" {
			t.Title = title
		}
		if seen[t.Name] {
			return Layout{}, fmt.Errorf("tab %d: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
	}
	return l, nil
}

// Tab finds a tab by name.
func (l Layout) Tab(name string) (Tab, bool) {
	for _, t := range l.Tabs {
		if t.Name == name {
			return t, true
		}
	}
	return Tab{}, false
}
