package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// Identity endpoints, newest first.
const (
	infoPath       = "/info"
	legacyInfoPath = "/api/device/state"
)

// DefaultFreshnessWindow is how long a snapshot satisfies further refreshes.
const DefaultFreshnessWindow = 2 * time.Second

// Logger is the logging surface this package needs. Compatible with
// logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Options configures a Device.
type Options struct {
	// Addr is the box address, reported by the API. Informational only.
	Addr string

	// FreshnessWindow skips refreshes this soon after the last one. Zero
	// means DefaultFreshnessWindow; negative disables the window.
	FreshnessWindow time.Duration

	// Logger receives diagnostics. Nil discards them.
	Logger Logger

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Device is one opened box: its transport and its resolved blebox.Box.
//
// Thread Safety: all methods are safe for concurrent use. Refreshes and
// commands are serialised so that at most one decode pass runs at a time.
type Device struct {
	transport Transport
	addr      string
	window    time.Duration
	logger    Logger
	now       func() time.Time

	mu          sync.Mutex
	box         *blebox.Box
	lastRefresh time.Time
	lastErr     error
}

// Open identifies the box behind t and resolves its features.
//
// It performs:
//  1. GET /info, falling back to /api/device/state
//  2. Identity parsing and capability resolution
//  3. GET of the tier's extended state path, if any; failure is logged and
//     the tier's static features are used
//  4. Feature instantiation
//
// Parameters:
//   - ctx: Context for the discovery requests
//   - t: Transport to the box
//   - opts: Device options
//
// Returns:
//   - *Device: Opened device with no telemetry applied
//   - error: transport, identity or resolution failure
func Open(ctx context.Context, t Transport, opts Options) (*Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	window := opts.FreshnessWindow
	if window == 0 {
		window = DefaultFreshnessWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	info, err := fetchInfo(ctx, t, logger)
	if err != nil {
		return nil, err
	}
	identity, err := blebox.ParseIdentity(info)
	if err != nil {
		return nil, err
	}
	res, err := blebox.Resolve(identity.Type, identity.Product, identity.APILevel)
	if err != nil {
		return nil, err
	}

	var extended any
	if path := res.Config.ExtendedPath; path != "" {
		extended, err = t.Get(ctx, path)
		if err != nil {
			logger.Warn("extended state unavailable, using static features",
				"device_id", identity.ID,
				"path", path,
				"error", err,
			)
			extended = nil
		}
	}

	box, err := blebox.NewBox(identity, extended)
	if err != nil {
		return nil, err
	}

	logger.Info("box opened",
		"device_id", identity.ID,
		"type", box.Model(),
		"api_level", identity.APILevel,
		"tier", box.TierLevel(),
		"features", len(box.Features()),
	)
	if box.Outdated() {
		logger.Warn("box firmware is older than the newest supported api level",
			"device_id", identity.ID,
			"api_level", identity.APILevel,
			"latest", blebox.LatestAPILevel(box.Model()),
		)
	}

	return &Device{
		transport: t,
		addr:      opts.Addr,
		window:    window,
		logger:    logger,
		now:       now,
		box:       box,
	}, nil
}

func fetchInfo(ctx context.Context, t Transport, logger Logger) (any, error) {
	info, err := t.Get(ctx, infoPath)
	if err == nil && info != nil {
		return info, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	logger.Debug("falling back to legacy info path", "error", err)

	info, legacyErr := t.Get(ctx, legacyInfoPath)
	if legacyErr != nil {
		return nil, fmt.Errorf("fetching device info: %w", legacyErr)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: empty device info", blebox.ErrUnsupportedResponse)
	}
	return info, nil
}

// Identity returns the box identity. It never changes after Open.
func (d *Device) Identity() blebox.Identity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.box.Identity()
}

// ID returns the box id.
func (d *Device) ID() string { return d.Identity().ID }

// Addr returns the address the device was opened with.
func (d *Device) Addr() string { return d.addr }

// LastRefresh returns when telemetry was last applied and the error of the
// last refresh attempt.
func (d *Device) LastRefresh() (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRefresh, d.lastErr
}

// Refresh fetches telemetry and applies it to every feature.
//
// Refreshes inside the freshness window return immediately. Concurrent
// callers queue behind the running refresh and then find it fresh.
//
// Returns:
//   - error: transport failure, or the joined decode errors of the snapshot
func (d *Device) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.window > 0 && !d.lastRefresh.IsZero() && d.now().Sub(d.lastRefresh) < d.window {
		return nil
	}

	data, err := d.transport.Get(ctx, d.box.APIPath())
	if err != nil {
		d.lastErr = err
		return fmt.Errorf("refreshing %s: %w", d.box.Identity().ID, err)
	}
	d.lastRefresh = d.now()
	d.lastErr = d.box.Update(data)
	return d.lastErr
}

// Execute performs a built request and applies the reply as the new
// snapshot.
func (d *Device) Execute(ctx context.Context, req blebox.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execute(ctx, req)
}

// Command encodes a request on the feature named alias and executes it.
//
// Parameters:
//   - ctx: Context for the request
//   - alias: feature alias
//   - encode: builds the request from the feature, e.g. a type switch
//     calling (*blebox.Cover).Open
//
// Returns:
//   - error: ErrUnknownFeature, an encoding error, or a transport error
func (d *Device) Command(ctx context.Context, alias string, encode func(blebox.Feature) (blebox.Request, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.box.Feature(alias)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, alias)
	}
	req, err := encode(f)
	if err != nil {
		return err
	}
	return d.execute(ctx, req)
}

// execute runs req. A reply that does not decode as state is not an error:
// the command was accepted, so the snapshot is marked stale instead.
func (d *Device) execute(ctx context.Context, req blebox.Request) error {
	id := d.box.Identity().ID
	reply, err := Perform(ctx, d.transport, req)
	if err != nil {
		return fmt.Errorf("executing %s %s on %s: %w", req.Method, req.Path, id, err)
	}
	d.logger.Debug("command executed", "device_id", id, "method", req.Method, "path", req.Path)

	if reply == nil {
		d.lastRefresh = time.Time{}
		return nil
	}
	if err := d.box.Update(reply); err != nil {
		d.logger.Debug("command reply is not a state snapshot", "device_id", id, "error", err)
		d.lastRefresh = time.Time{}
		return nil
	}
	d.lastRefresh = d.now()
	d.lastErr = nil
	return nil
}

// Inspect calls fn with the box while holding the device lock. fn must not
// retain the box.
func (d *Device) Inspect(fn func(b *blebox.Box)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.box)
}
