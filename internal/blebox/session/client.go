package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// DefaultPort is the HTTP port boxes listen on.
const DefaultPort = 80

// DefaultTimeout bounds one request when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Transport performs requests against one box. Replies are decoded JSON
// trees with numbers as json.Number; an empty reply is nil.
type Transport interface {
	Get(ctx context.Context, path string) (any, error)
	Post(ctx context.Context, path, body string) (any, error)
}

// Client is the HTTP Transport for one box.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	addr       string
	httpClient *http.Client
}

// NewClient returns a client for addr ("host" or "host:port").
//
// Parameters:
//   - addr: box address; DefaultPort is used when no port is given
//   - timeout: per-request timeout; zero means DefaultTimeout
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		addr:       NormalizeAddress(addr),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NormalizeAddress appends DefaultPort to an address without a port.
func NormalizeAddress(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(DefaultPort))
}

// JoinAddress builds "host:port", defaulting the port.
func JoinAddress(host string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Addr returns the normalised "host:port" of the box.
func (c *Client) Addr() string { return c.addr }

// Get fetches path and decodes the reply.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	return c.do(ctx, http.MethodGet, path, "")
}

// Post sends body to path and decodes the reply.
func (c *Client) Post(ctx context.Context, path, body string) (any, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path, body string) (any, error) {
	var reader io.Reader
	if method == http.MethodPost {
		reader = strings.NewReader(body)
	}
	url := "http://" + c.addr + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: building %s %s: %w", ErrClient, method, path, err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", classify(err), method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{Method: method, Path: path, Status: resp.StatusCode}
	}
	return decode(resp.Body)
}

// classify maps a transport failure to its kind.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection
	}
	return ErrClient
}

func decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decoding reply: %w", ErrClient, err)
	}
	return v, nil
}

// Perform sends a built command over t.
func Perform(ctx context.Context, t Transport, req blebox.Request) (any, error) {
	if req.Method == blebox.MethodPost {
		return t.Post(ctx, req.Path, req.Body)
	}
	return t.Get(ctx, req.Path)
}
