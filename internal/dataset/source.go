package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/bikeshare/internal/metrics"
	"github.com/lox/bikeshare/internal/models"
)

const DefaultTimeout = 30 * time.Second

// Loader fetches a dataset from a path or URL. The zero value is usable.
type Loader struct {
	Client         *http.Client
	MaxElapsedTime time.Duration
}

func (l *Loader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// Open resolves source to a reader. Plain paths and file:// read from disk,
// http(s):// is fetched with retries and ftp:// logs in anonymously unless
// the URL carries credentials.
func (l *Loader) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Windows drive letters parse as a one-letter scheme.
		return openFile(source)
	}
	switch u.Scheme {
	case "file":
		return openFile(u.Path)
	case "http", "https":
		return l.openHTTP(ctx, u.String())
	case "ftp":
		return l.openFTP(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
	}
}

// Load opens source and parses it as CSV.
func (l *Loader) Load(ctx context.Context, source string) ([]models.Record, error) {
	start := time.Now()
	scheme := schemeOf(source)

	rc, err := l.Open(ctx, source)
	if err != nil {
		metrics.DatasetFetchTotal.WithLabelValues(scheme, "error").Inc()
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer rc.Close()

	records, err := ParseCSV(rc)
	if err != nil {
		metrics.DatasetFetchTotal.WithLabelValues(scheme, "invalid").Inc()
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	elapsed := time.Since(start)
	metrics.DatasetFetchTotal.WithLabelValues(scheme, "ok").Inc()
	metrics.DatasetLoadDuration.WithLabelValues(scheme).Observe(elapsed.Seconds())
	metrics.DatasetRowsLoaded.Set(float64(len(records)))
	log.Printf("dataset: loaded %d rows from %s in %v", len(records), source, elapsed.Round(time.Millisecond))
	return records, nil
}

// Open uses a default Loader.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	var l Loader
	return l.Open(ctx, source)
}

// Load uses a default Loader.
func Load(ctx context.Context, source string) ([]models.Record, error) {
	var l Loader
	return l.Load(ctx, source)
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func schemeOf(source string) string {
	if i := strings.Index(source, "://"); i > 1 {
		return strings.ToLower(source[:i])
	}
	return "file"
}

func (l *Loader) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	client := l.client()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			log.Printf("dataset: %s returned %d, retrying", rawURL, resp.StatusCode)
			return fmt.Errorf("fetch: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if l.MaxElapsedTime > 0 {
		bo.MaxElapsedTime = l.MaxElapsedTime
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (l *Loader) openFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	host := u.Host
	if u.Port() == "" {
		host = u.Hostname() + ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(DefaultTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", u.Path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	log.Printf("dataset: fetched %d bytes over ftp from %s", len(body), u.Hostname())
	return io.NopCloser(bytes.NewReader(body)), nil
}
