// bvmctl - Broadcast Video Monitor Control Node
//
// This is the main entry point for the bvmctl application. bvmctl sits
// between physical buttons, a network client, and a broadcast video monitor
// speaking a proprietary line protocol. It is designed for:
//   - Unattended operation in machine rooms
//   - A single serialised writer on the monitor wire
//   - Bounded memory: every queue and registry has a fixed capacity
//
// For architecture details, see: docs/architecture/system-overview.md
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/bvmctl/migrations"

	"github.com/nerrad567/bvmctl/internal/api"
	"github.com/nerrad567/bvmctl/internal/bridge"
	"github.com/nerrad567/bvmctl/internal/core"
	"github.com/nerrad567/bvmctl/internal/history"
	"github.com/nerrad567/bvmctl/internal/infrastructure/config"
	"github.com/nerrad567/bvmctl/internal/infrastructure/database"
	"github.com/nerrad567/bvmctl/internal/infrastructure/influxdb"
	"github.com/nerrad567/bvmctl/internal/infrastructure/logging"
	"github.com/nerrad567/bvmctl/internal/infrastructure/mqtt"
	"github.com/nerrad567/bvmctl/internal/input"
	"github.com/nerrad567/bvmctl/internal/monitor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyBufferSize bounds the hand-off between the dispatcher listener and
// the journal writer. The listener must never block, so overflow drops the
// record rather than stalling notification delivery.
const historyBufferSize = 16

// historyWriteTimeout caps a single journal insert.
const historyWriteTimeout = 5 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting bvmctl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	historyRepo := history.NewSQLiteRepository(db.DB)

	// Coordination core: the state store, the bounded command queue, and the
	// long-poll waiter registry. Everything else hangs off these three.
	store := core.NewStateStore()
	queue := core.NewCommandQueue(cfg.Queue.Capacity)
	registry := core.NewWaiterRegistry(cfg.Waiters.Capacity)
	log.Info("coordination core initialised",
		"queue_capacity", cfg.Queue.Capacity,
		"waiter_capacity", cfg.Waiters.Capacity,
	)

	// Start the monitor link
	link, err := startLink(ctx, cfg, store, queue, log)
	if err != nil {
		return fmt.Errorf("starting monitor link: %w", err)
	}

	// Start physical input sampling (if enabled)
	if cfg.Inputs.Enabled {
		if inputErr := startInputs(ctx, cfg, queue, log); inputErr != nil {
			return fmt.Errorf("starting input sampling: %w", inputErr)
		}
	} else {
		log.Info("physical inputs disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// Set up MQTT logging callbacks
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start MQTT bridge (if MQTT is connected)
	var mqttBridge *bridge.Bridge
	if mqttClient != nil {
		// A nil *influxdb.Client must stay a nil interface, or the bridge
		// would try to call through it.
		var telemetry bridge.Telemetry
		if influxClient != nil {
			telemetry = influxClient
		}

		mqttBridge, err = bridge.New(bridge.Options{
			NodeID:     cfg.Node.ID,
			MQTTClient: mqttClient,
			Queue:      queue,
			Stats:      link,
			Telemetry:  telemetry,
			Logger:     log,
		})
		if err != nil {
			return fmt.Errorf("creating MQTT bridge: %w", err)
		}
		if startErr := mqttBridge.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			mqttBridge.Stop()
		}()
		log.Info("MQTT bridge started")
	}

	// Same trap as telemetry above: a nil *mqtt.Client must stay a nil
	// interface or the metrics handler would call through it.
	var mqttStatus api.MQTTStatus
	if mqttClient != nil {
		mqttStatus = mqttClient
	}

	// Create the API server before the dispatcher so its broadcast hook can
	// be registered as a listener.
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Store:    store,
		Queue:    queue,
		Registry: registry,
		Link:     link,
		History:  historyRepo,
		MQTT:     mqttStatus,
		DB:       db,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Notification dispatcher: watches the store's dirty flag and fans
	// snapshots out to waiters and listeners. Listeners run on the dispatcher
	// goroutine, so each one hands off rather than doing work inline.
	dispatcher := core.NewDispatcher(core.DispatcherOptions{
		Store:         store,
		Registry:      registry,
		Interval:      cfg.DispatchInterval(),
		WaiterTimeout: cfg.WaiterTimeout(),
		Logger:        log,
	})
	dispatcher.AddListener(startHistoryRecorder(ctx, historyRepo, log))
	dispatcher.AddListener(apiServer.BroadcastState)
	if mqttBridge != nil {
		dispatcher.AddListener(mqttBridge.HandleStateChange)
	}
	go dispatcher.Run(ctx)
	log.Info("notification dispatcher started",
		"interval", cfg.DispatchInterval(),
		"waiter_timeout", cfg.WaiterTimeout(),
	)

	// Start the API server
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. MQTT bridge
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("bvmctl stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BVMCTL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BVMCTL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startLink wires up the monitor transport and starts the connect/poll/drain
// cycle in the background.
//
// A configured network interface that does not exist is a hardware fault and
// aborts startup; a monitor that is merely unreachable is not, since the link
// reconnects on its own.
func startLink(ctx context.Context, cfg *config.Config, store *core.StateStore, queue *core.CommandQueue, log *logging.Logger) (*monitor.Link, error) {
	dialer, err := monitor.NewDialer(cfg.Monitor.Address, cfg.Monitor.Baud)
	if err != nil {
		return nil, fmt.Errorf("creating dialer: %w", err)
	}

	watcher := monitor.AlwaysUp()
	if cfg.Monitor.Interface != "" {
		iw, watchErr := monitor.NewInterfaceWatcher(cfg.Monitor.Interface)
		if watchErr != nil {
			return nil, watchErr
		}
		watcher = iw
		log.Info("watching network interface", "interface", cfg.Monitor.Interface)
	}

	link, err := monitor.NewLink(monitor.LinkOptions{
		Dialer:          dialer,
		Store:           store,
		Queue:           queue,
		Watcher:         watcher,
		PollInterval:    cfg.PollInterval(),
		ResponseTimeout: cfg.ResponseTimeout(),
		ReconnectDelay:  cfg.ReconnectDelay(),
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating link: %w", err)
	}

	go link.Run(ctx)
	log.Info("monitor link started",
		"address", cfg.Monitor.Address,
		"poll_interval", cfg.PollInterval(),
	)

	return link, nil
}

// startInputs builds the GPIO sampler and edge detector from the configured
// button bindings and starts sampling in the background.
func startInputs(ctx context.Context, cfg *config.Config, queue *core.CommandQueue, log *logging.Logger) error {
	lines := make([]input.GPIOLine, len(cfg.Inputs.Buttons))
	bindings := make([]input.Binding, len(cfg.Inputs.Buttons))
	for i, b := range cfg.Inputs.Buttons {
		cmd, err := monitor.NewToggleCommand(b.Button)
		if err != nil {
			return fmt.Errorf("inputs.buttons[%d]: %w", i, err)
		}
		lines[i] = input.GPIOLine{Number: b.GPIO, ActiveLow: b.ActiveLow}
		bindings[i] = input.Binding{Bit: uint(i), Command: cmd}
	}

	sampler, err := input.NewGPIOSampler(lines)
	if err != nil {
		return fmt.Errorf("creating GPIO sampler: %w", err)
	}

	detector, err := input.NewDetector(input.DetectorOptions{
		Sampler:  sampler,
		Queue:    queue,
		Bindings: bindings,
		Interval: cfg.SampleInterval(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating edge detector: %w", err)
	}

	go detector.Run(ctx)
	log.Info("input sampling started",
		"buttons", len(bindings),
		"sample_interval", cfg.SampleInterval(),
	)

	return nil
}

// startHistoryRecorder returns a dispatcher listener that journals state
// changes without blocking the dispatcher. Snapshots are handed to a writer
// goroutine through a bounded buffer; if the writer falls behind, the oldest
// unwritten records are simply lost.
func startHistoryRecorder(ctx context.Context, repo history.Repository, log *logging.Logger) func(core.DeviceState) {
	changes := make(chan core.DeviceState, historyBufferSize)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case state := <-changes:
				writeCtx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
				if err := repo.Record(writeCtx, state); err != nil {
					log.Error("failed to record state history", "error", err)
				}
				cancel()
			}
		}
	}()

	return func(state core.DeviceState) {
		select {
		case changes <- state:
		default:
			log.Warn("state history buffer full, dropping record")
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Monitor link health is intentionally not checked here: the link
	// reconnects on its own and a powered-off monitor must not stop the
	// node from serving its API.

	return nil
}
