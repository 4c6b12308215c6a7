// Package fetch retrieves PKGBUILD descriptors from package repositories or
// the local filesystem.
package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/readahead"

	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/pkg"
)

const (
	// DefaultBranch is the repository branch fetched when none is given.
	DefaultBranch = "main"

	// DefaultMaxSize caps the size of a fetched descriptor.
	DefaultMaxSize = 4 << 20

	// descriptorFile is the file name of a descriptor in a repository.
	descriptorFile = "PKGBUILD"
)

// Fetcher retrieves the text of a descriptor.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// Client fetches descriptors over HTTP, or from disk for local paths and
// file:// URLs.
type Client struct {
	client  *http.Client
	logger  log.Logger
	branch  string
	maxSize int64
	timeout time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The client is
// copied, not modified, when [WithTimeout] is also given.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBranch sets the repository branch of raw descriptor URLs.
func WithBranch(branch string) Option {
	return func(c *Client) {
		if branch != "" {
			c.branch = branch
		}
	}
}

// WithTimeout sets the timeout of each request, regardless of the order in
// which it and [WithHTTPClient] are given.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxSize sets the largest descriptor accepted, in bytes.
func WithMaxSize(n int64) Option {
	return func(c *Client) {
		c.maxSize = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a [Client] configured by opts.
func New(opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{},
		branch:  DefaultBranch,
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		client := *c.client
		client.Timeout = c.timeout
		c.client = &client
	}

	return c
}

// RawURL returns the URL of the descriptor in the repository at location.
//
// A location already naming a PKGBUILD is returned unchanged. Otherwise the
// location is taken as a repository URL and the raw file path
// <repo>/-/raw/<branch>/PKGBUILD is appended.
func RawURL(location, branch string) string {
	location = strings.TrimRight(location, "/")

	if strings.HasSuffix(location, "/"+descriptorFile) {
		return location
	}

	if branch == "" {
		branch = DefaultBranch
	}

	return location + "/-/raw/" + branch + "/" + descriptorFile
}

// IsLocal reports whether location names a file rather than a remote URL.
func IsLocal(location string) bool {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme, or a Windows drive letter.
		return true
	}

	return u.Scheme == "file"
}

// Fetch returns the descriptor text at location.
func (c *Client) Fetch(ctx context.Context, location string) (string, error) {
	if IsLocal(location) {
		return c.readFile(ctx, location)
	}

	return c.get(ctx, RawURL(location, c.branch))
}

func (c *Client) readFile(ctx context.Context, location string) (string, error) {
	name := location

	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		name = u.Path
	}

	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name += string(os.PathSeparator) + descriptorFile
	}

	c.logger.DebugContext(ctx, "read descriptor", slog.String("path", name))

	f, err := os.Open(name)
	if err != nil {
		return "", &Error{Location: location, Err: err}
	}
	defer f.Close()

	return c.read(location, f)
}

func (c *Client) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Location: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", pkg.Name+"/"+pkg.Version())

	c.logger.DebugContext(ctx, "fetch descriptor", slog.String("url", rawURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Location: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Location: rawURL, Status: resp.StatusCode}
	}

	return c.read(rawURL, resp.Body)
}

// read reads all of r through a read-ahead buffer, failing if it holds more
// than the configured maximum size.
func (c *Client) read(location string, r io.Reader) (string, error) {
	ra := readahead.NewReader(io.LimitReader(r, c.maxSize+1))
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", &Error{Location: location, Err: err}
	}

	if int64(len(data)) > c.maxSize {
		return "", &Error{Location: location, Err: ErrTooLarge}
	}

	return string(data), nil
}

// ErrTooLarge reports a descriptor larger than the configured maximum size.
var ErrTooLarge = errors.New("descriptor too large")

// Error reports a failure to fetch a descriptor: a transport or filesystem
// error, or a response with a non-success status.
type Error struct {
	Location string
	Status   int
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var buf strings.Builder

	buf.WriteString("fetch ")
	buf.WriteString(e.Location)
	buf.WriteString(": ")

	switch {
	case e.Err != nil:
		buf.WriteString(e.Err.Error())
	case e.Status != 0:
		buf.WriteString("HTTP ")
		buf.WriteString(strconv.Itoa(e.Status))

		if text := http.StatusText(e.Status); text != "" {
			buf.WriteString(" ")
			buf.WriteString(text)
		}
	default:
		buf.WriteString("failed")
	}

	return buf.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("location", e.Location)}

	if e.Status != 0 {
		attrs = append(attrs, slog.Int("status", e.Status))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}
