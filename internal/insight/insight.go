package insight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k3a/html2text"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/singleflight"

	"github.com/lox/bikeshare/internal/metrics"
	"github.com/lox/bikeshare/internal/models"
)

// ErrNoInsight is returned when the model produced no usable text.
var ErrNoInsight = errors.New("no insight returned")

const (
	DefaultModel = openai.ChatModelGPT4oMini
	DefaultTTL   = time.Hour
)

const systemPrompt = `You are an analyst writing for a bike sharing operator's dashboard.
Given aggregated rental figures for a date range, write three or four short sentences
that highlight the most notable pattern. Use plain language and only the numbers given.`

// Completer sends one system and user prompt pair to a language model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type openAICompleter struct {
	client openai.Client
	model  string
}

func (c *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoInsight
	}
	return resp.Choices[0].Message.Content, nil
}

// Input is the aggregate view of a range the narrative is written from.
type Input struct {
	Summary models.Summary
	DayType []models.DayTypeBucket
	Weather []models.WeatherBucket
}

type entry struct {
	text      string
	expiresAt time.Time
}

// Generator produces a short narrative per date range. Identical concurrent
// requests share one completion and results are cached for the TTL.
type Generator struct {
	completer Completer
	ttl       time.Duration
	now       func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]entry
}

// NewGenerator creates a generator backed by OpenAI.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewGenerator(model string) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = string(DefaultModel)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return NewWithCompleter(&openAICompleter{client: client, model: model}, DefaultTTL), nil
}

func NewWithCompleter(c Completer, ttl time.Duration) *Generator {
	return &Generator{
		completer: c,
		ttl:       ttl,
		now:       time.Now,
		cache:     make(map[string]entry),
	}
}

func (g *Generator) cached(key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.cache[key]
	if !ok || g.now().After(e.expiresAt) {
		return "", false
	}
	return e.text, true
}

// Generate returns the narrative for in, generating it at most once per range
// within the TTL.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	key := in.Summary.Range.Key()
	if text, ok := g.cached(key); ok {
		metrics.InsightRequests.WithLabelValues("cache_hit").Inc()
		return text, nil
	}

	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.complete(ctx, key, in)
	})
	if err != nil {
		metrics.InsightRequests.WithLabelValues("error").Inc()
		return "", err
	}
	res := v.(result)
	if res.cached {
		metrics.InsightRequests.WithLabelValues("cache_hit").Inc()
	} else {
		metrics.InsightRequests.WithLabelValues("generated").Inc()
	}
	return res.text, nil
}

type result struct {
	text   string
	cached bool
}

// complete runs one completion for key unless an earlier flight already
// cached it.
func (g *Generator) complete(ctx context.Context, key string, in Input) (result, error) {
	if text, ok := g.cached(key); ok {
		return result{text: text, cached: true}, nil
	}
	start := time.Now()
	text, err := g.completer.Complete(ctx, systemPrompt, BuildPrompt(in))
	if err != nil {
		return result{}, err
	}
	// Models sometimes answer with markup; the page shows plain text.
	text = strings.TrimSpace(html2text.HTML2Text(text))
	if text == "" {
		return result{}, ErrNoInsight
	}
	log.Printf("insight: generated narrative for %s in %v", key, time.Since(start).Round(time.Millisecond))

	g.mu.Lock()
	g.cache[key] = entry{text: text, expiresAt: g.now().Add(g.ttl)}
	g.mu.Unlock()
	return result{text: text}, nil
}

// BuildPrompt renders the aggregates as the user message.
func BuildPrompt(in Input) string {
	s := in.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Date range: %s to %s (%d days, %s hourly rows)\n",
		s.Range.Start.Format("2006-01-02"), s.Range.End.Format("2006-01-02"), s.Days, humanize.Comma(int64(s.Rows)))
	fmt.Fprintf(&b, "Total rentals: %s (registered %s, casual %s)\n",
		humanize.Comma(int64(s.TotalHourly)), humanize.Comma(int64(s.Registered)), humanize.Comma(int64(s.Casual)))
	if s.BusiestDay > 0 {
		fmt.Fprintf(&b, "Busiest day: %s with %s rentals\n", s.BusiestDate.Format("2006-01-02"), humanize.Comma(int64(s.BusiestDay)))
	}

	if len(in.DayType) > 0 {
		b.WriteString("\nBy day type (sum of daily totals over rows):\n")
		for _, d := range in.DayType {
			fmt.Fprintf(&b, "- %s: %s (registered %s, casual %s)\n", d.DayType,
				humanize.Comma(int64(d.Count)), humanize.Comma(int64(d.Registered)), humanize.Comma(int64(d.Casual)))
		}
	}
	if len(in.Weather) > 0 {
		b.WriteString("\nBy weather (hourly rentals):\n")
		for _, w := range in.Weather {
			fmt.Fprintf(&b, "- %s: %s (registered %s, casual %s)\n", w.Label,
				humanize.Comma(int64(w.Count)), humanize.Comma(int64(w.Registered)), humanize.Comma(int64(w.Casual)))
		}
	}
	return b.String()
}
