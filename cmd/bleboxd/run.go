package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-blebox/internal/api"
	"github.com/nerrad567/gray-logic-blebox/internal/blebox/session"
	"github.com/nerrad567/gray-logic-blebox/internal/bridge"
	"github.com/nerrad567/gray-logic-blebox/internal/discovery"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/mqtt"
)

// Timeouts for startup and shutdown.
const (
	healthCheckTimeout = 5 * time.Second
	retryInterval      = 30 * time.Second
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the gateway until interrupted",
		Long: `Run opens every configured box, optionally browses mDNS for more, and
then polls them, publishing state to MQTT and serving the REST API until
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)
			log.Info("starting bleboxd", "commit", commit, "build_date", date)
			return run(cmd.Context(), cfg, log)
		},
	}
}

// run wires all components and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("configuration loaded",
		"devices", len(cfg.BleBox.Devices),
		"discovery", cfg.BleBox.Discovery.Enabled,
		"mqtt_broker", cfg.MQTT.Broker.Host,
		"api_port", cfg.API.Port,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt: %w", err)
	}
	defer mqttClient.Close()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("mqtt connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("mqtt disconnected", "error", err)
	})
	log.Info("mqtt connected", "broker", cfg.MQTT.Broker.Host, "port", cfg.MQTT.Broker.Port)

	bridgeOpts := bridge.Options{
		MQTT:         mqttClient,
		Topics:       mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix},
		PollInterval: cfg.BleBox.PollInterval,
		Version:      version,
		Logger:       log.Component("bridge"),
	}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("influxdb disabled")
	case err != nil:
		return fmt.Errorf("connecting to influxdb: %w", err)
	default:
		defer influxClient.Close()
		influxClient.SetOnError(func(err error) {
			log.Error("influxdb write error", "error", err)
		})
		bridgeOpts.Metrics = influxClient
		log.Info("influxdb connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	gw, err := bridge.New(bridgeOpts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	fleet := newFleet(cfg.BleBox, gw, log.Component("fleet"))
	fleet.openConfigured(ctx)

	srv, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log.Component("api"),
		Gateway: gw,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer gw.Stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer srv.Close()

	var wg sync.WaitGroup
	if cfg.BleBox.Discovery.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fleet.discover(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fleet.retryLoop(ctx, retryInterval)
	}()

	if err := healthCheck(ctx, mqttClient, influxClient, srv); err != nil {
		log.Warn("initial health check failed", "error", err)
	}

	log.Info("bleboxd started", "devices", len(gw.Devices()), "api", srv.Addr())

	<-ctx.Done()
	log.Info("shutting down")
	wg.Wait()
	return nil
}

// healthCheck verifies each connected service responds.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, srv *api.Server) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if err := srv.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// fleet opens boxes and hands them to the bridge. Addresses that fail to
// open are kept pending and retried.
type fleet struct {
	cfg    config.BleBoxConfig
	gw     *bridge.Bridge
	logger *logging.Logger

	mu      sync.Mutex
	known   map[string]bool
	pending map[string]string
}

func newFleet(cfg config.BleBoxConfig, gw *bridge.Bridge, logger *logging.Logger) *fleet {
	return &fleet{
		cfg:     cfg,
		gw:      gw,
		logger:  logger,
		known:   make(map[string]bool),
		pending: make(map[string]string),
	}
}

// openConfigured opens every box listed in the configuration.
func (f *fleet) openConfigured(ctx context.Context) {
	for _, d := range f.cfg.Devices {
		f.add(ctx, session.JoinAddress(d.Host, d.Port), d.Name)
	}
}

// add opens addr unless it is already managed. Failures are queued for retry.
func (f *fleet) add(ctx context.Context, addr, name string) {
	f.mu.Lock()
	if f.known[addr] {
		f.mu.Unlock()
		return
	}
	f.known[addr] = true
	f.mu.Unlock()

	if err := f.open(ctx, addr, name); err != nil {
		f.logger.Warn("box unavailable, will retry", "addr", addr, "name", name, "error", err)
		f.mu.Lock()
		f.pending[addr] = name
		f.mu.Unlock()
	}
}

func (f *fleet) open(ctx context.Context, addr, name string) error {
	logger := f.logger.With("addr", addr)
	if name != "" {
		logger = logger.With("name", name)
	}
	dev, err := session.Open(ctx, session.NewClient(addr, f.cfg.RequestTimeout), session.Options{
		Addr:            addr,
		FreshnessWindow: f.cfg.FreshnessWindow,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	if err := f.gw.Add(dev); err != nil {
		if errors.Is(err, bridge.ErrDuplicateDevice) {
			f.logger.Debug("box already managed under another address", "addr", addr, "device_id", dev.ID())
			return nil
		}
		return err
	}
	return nil
}

// discover browses mDNS once and opens every box found.
func (f *fleet) discover(ctx context.Context) {
	err := discovery.Browse(ctx, discovery.Options{
		Interface: f.cfg.Discovery.Interface,
		Timeout:   f.cfg.Discovery.BrowseTimeout,
		Logger:    f.logger,
	}, func(h discovery.Host) {
		f.logger.Info("box discovered", "instance", h.Instance, "addr", h.Address())
		f.add(ctx, h.Address(), h.Instance)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Error("mdns browse failed", "error", err)
	}
}

// retryLoop retries pending boxes every interval until ctx is cancelled.
func (f *fleet) retryLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.retryPending(ctx)
		}
	}
}

// retryPending attempts each pending box once.
func (f *fleet) retryPending(ctx context.Context) {
	f.mu.Lock()
	pending := make(map[string]string, len(f.pending))
	for addr, name := range f.pending {
		pending[addr] = name
	}
	f.mu.Unlock()

	for addr, name := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := f.open(ctx, addr, name); err != nil {
			f.logger.Debug("box still unavailable", "addr", addr, "error", err)
			continue
		}
		f.logger.Info("box opened after retry", "addr", addr)
		f.mu.Lock()
		delete(f.pending, addr)
		f.mu.Unlock()
	}
}

// pendingCount returns the number of boxes awaiting retry.
func (f *fleet) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
