package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service BleBox boxes advertise.
const (
	ServiceType = "_bbxsrv._tcp"
	Domain      = "local."
)

// DefaultTimeout bounds a browse when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// ErrBrowse is returned when the mDNS browser fails to start.
var ErrBrowse = errors.New("discovery: browse failed")

// Logger is the logging surface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Host is one discovered box.
type Host struct {
	// Instance is the mDNS instance name, unique per box.
	Instance string `json:"instance"`

	// HostName is the advertised host name.
	HostName string `json:"host_name,omitempty"`

	// Addr is the preferred IP address (IPv4 when advertised).
	Addr string `json:"addr"`

	// Port is the HTTP port.
	Port int `json:"port"`

	// Addresses lists every advertised IP, IPv4 first.
	Addresses []string `json:"addresses,omitempty"`
}

// Address returns "host:port" for dialling the box.
func (h Host) Address() string {
	port := h.Port
	if port <= 0 {
		port = 80
	}
	return net.JoinHostPort(h.Addr, strconv.Itoa(port))
}

// Options configures a browse.
type Options struct {
	// Interface restricts browsing to one network interface. Empty means all.
	Interface string

	// Timeout bounds the browse. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives diagnostics. Nil discards them.
	Logger Logger
}

// Browse reports every box that answers within the timeout. found is called
// once per instance, from the calling goroutine.
//
// Returns:
//   - error: nil when the timeout elapses, ctx.Err() when ctx is cancelled
//     first, or ErrBrowse
func Browse(ctx context.Context, opts Options, found func(Host)) error {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	errCh := make(chan error, 1)

	go func() {
		errCh <- zeroconf.Browse(browseCtx, ServiceType, Domain, entries, removed, browserOptions(opts.Interface, logger)...)
	}()

	seen := newDedup()
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			host, ok := hostFromEntry(entry)
			if !ok {
				logger.Debug("ignoring mdns entry without address", "instance", entry.Instance)
				continue
			}
			if seen.add(host) {
				found(host)
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			logger.Debug("mdns instance removed", "instance", entry.Instance)

		case err := <-errCh:
			errCh = nil
			if err != nil && browseCtx.Err() == nil {
				return fmt.Errorf("%w: %w", ErrBrowse, err)
			}

		case <-browseCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
	}
}

// Collect browses and returns the hosts sorted by instance.
func Collect(ctx context.Context, opts Options) ([]Host, error) {
	var hosts []Host
	err := Browse(ctx, opts, func(h Host) {
		hosts = append(hosts, h)
	})
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Instance < hosts[j].Instance })
	return hosts, err
}

func browserOptions(ifaceName string, logger Logger) []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if ifaceName == "" {
		return opts
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		logger.Warn("unknown interface, browsing on all", "interface", ifaceName, "error", err)
		return opts
	}
	return append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
}

// hostFromEntry converts a zeroconf entry. Entries without any address are
// rejected.
func hostFromEntry(entry *zeroconf.ServiceEntry) (Host, bool) {
	if entry == nil || entry.Instance == "" {
		return Host{}, false
	}
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	if len(addrs) == 0 {
		return Host{}, false
	}
	return Host{
		Instance:  entry.Instance,
		HostName:  entry.HostName,
		Addr:      addrs[0],
		Port:      entry.Port,
		Addresses: addrs,
	}, true
}

// dedup remembers instances already reported. Boxes answering on several
// interfaces produce one entry per interface.
type dedup struct {
	seen map[string]bool
}

func newDedup() *dedup {
	return &dedup{seen: make(map[string]bool)}
}

// add reports whether h is new.
func (d *dedup) add(h Host) bool {
	if d.seen[h.Instance] {
		return false
	}
	d.seen[h.Instance] = true
	return true
}
