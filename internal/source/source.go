package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/zeebo/errs"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
)

// Error is the error class for content resolution failures.
var Error = errs.Class("source")

// DefaultMaxBytes is the largest content accepted by a single upload request.
const DefaultMaxBytes int64 = 150 << 20

const (
	TypeURL   = "url"
	TypeLocal = "local"
)

// Source is an upload origin: either a URL or a local file path.
type Source struct {
	URL       string
	LocalPath string
}

// New returns a Source for exactly one of url and localPath.
func New(url, localPath string) (Source, error) {
	switch {
	case url != "" && localPath != "":
		return Source{}, Error.New("provide either a URL or a local path, not both")
	case url == "" && localPath == "":
		return Source{}, Error.New("either a URL or a local path is required")
	}
	return Source{URL: url, LocalPath: localPath}, nil
}

// Type returns TypeURL or TypeLocal.
func (s Source) Type() string {
	if s.URL != "" {
		return TypeURL
	}
	return TypeLocal
}

func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.LocalPath
}

// Resolver reads Sources. The zero value is usable.
type Resolver struct {
	// HTTPClient fetches URL sources; defaults to an otelhttp-instrumented client
	HTTPClient *http.Client

	// MaxBytes caps resolved content; 0 means DefaultMaxBytes
	MaxBytes int64

	Metrics *instrumentation.Metrics
}

// defaultClient has no overall timeout; fetches are bounded by the caller's
// context only.
var defaultClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
}

// Resolve reads the full content of src.
func (r *Resolver) Resolve(ctx context.Context, src Source) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	switch {
	case src.URL != "":
		content, err = r.fetch(ctx, src.URL)
	case src.LocalPath != "":
		content, err = r.readFile(src.LocalPath)
	default:
		err = Error.New("empty source")
	}

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	r.Metrics.RecordSourceRead(ctx, src.Type(), status, int64(len(content)))

	return content, err
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	client := r.HTTPClient
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, Error.New("unexpected response code %d fetching %s", res.StatusCode, url)
	}

	return r.readAll(res.Body, url)
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if info.IsDir() {
		return nil, Error.New("%s is a directory", path)
	}
	if info.Size() > r.maxBytes() {
		return nil, tooLarge(path, r.maxBytes())
	}

	return r.readAll(f, path)
}

// readAll reads at most maxBytes from rd, failing if there is more.
func (r *Resolver) readAll(rd io.Reader, name string) ([]byte, error) {
	limit := r.maxBytes()
	content, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("failed to read %s: %w", name, err))
	}
	if int64(len(content)) > limit {
		return nil, tooLarge(name, limit)
	}
	return content, nil
}

func (r *Resolver) maxBytes() int64 {
	if r.MaxBytes > 0 {
		return r.MaxBytes
	}
	return DefaultMaxBytes
}

func tooLarge(name string, limit int64) error {
	return Error.New("%s exceeds the maximum upload size of %d bytes", name, limit)
}
