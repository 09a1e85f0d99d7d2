// Command helium runs the balloon flight computer: operator console on the
// ground, scheduled sensor sampling and GPS listening once launched.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sweeney/helium/internal/arbiter"
	"github.com/sweeney/helium/internal/config"
	"github.com/sweeney/helium/internal/console"
	"github.com/sweeney/helium/internal/flight"
	"github.com/sweeney/helium/internal/metrics"
	"github.com/sweeney/helium/internal/mqtt"
	"github.com/sweeney/helium/internal/status"
	"github.com/sweeney/helium/internal/store"
	"github.com/sweeney/helium/internal/telemetry"
	"github.com/sweeney/helium/internal/web"
)

const version = "1.0.0"

func main() {
	if err := buildCLI().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	configFile string
	broker     string
	httpAddr   string
	poll       time.Duration
	printState bool
	launch     bool
}

func buildCLI() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "helium",
		Short: "High-altitude balloon flight computer",
		Long: `helium serves an operator console until launch, then samples the
balloon's instruments on a fixed schedule, shares the GPS line with the
ground tracker and logs telemetry to SQLite and MQTT.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			return run(cfg, o.printState, o.launch)
		},
	}

	cmd.Flags().StringVarP(&o.configFile, "config", "c", "", "config file path (empty uses built-in defaults)")
	cmd.Flags().StringVar(&o.broker, "broker", "", "MQTT broker address, overrides mqtt.broker (empty disables)")
	cmd.Flags().StringVar(&o.httpAddr, "http", "", "HTTP status address, overrides http.addr (empty disables)")
	cmd.Flags().DurationVar(&o.poll, "poll", 0, "control loop interval, overrides loop.poll")
	cmd.Flags().BoolVar(&o.printState, "print-state", false, "Print instrument readings and exit")
	cmd.Flags().BoolVar(&o.launch, "launch", false, "Launch immediately without waiting for the console")

	return cmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command, o options) (config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("broker") {
		cfg.MQTT.Broker = o.broker
	}
	if flags.Changed("http") {
		cfg.HTTP.Addr = o.httpAddr
	}
	if flags.Changed("poll") {
		cfg.Loop.Poll = o.poll
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(cfg config.Config, printState, launch bool) error {
	hw := openHardware(cfg)
	defer hw.Close()

	if printState {
		printInstruments(os.Stdout, hw.inst)
		return nil
	}

	pool, err := newPool(cfg.Workers)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pool.Stop(ctx); err != nil {
			log.Printf("worker pool stop: %v", err)
		}
	}()

	var sinks telemetry.MultiSink
	sqliteVersion := func() (string, error) { return "", errors.New("store disabled") }
	if cfg.Store.Path != "" {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
		sqliteVersion = func() (string, error) {
			ctx, cancel := context.WithTimeout(context.Background(), store.DefaultTimeout)
			defer cancel()
			return db.Version(ctx)
		}
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BufferSize: cfg.MQTT.BufferSize,
		})
		defer p.Close()
		publisher, mqttStatus = p, p
		sinks = append(sinks, p)
	}

	collector := metrics.NewCollector()
	flightID := uuid.NewString()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), flightID, status.Config{
		PollMs:       cfg.Loop.Poll.Milliseconds(),
		HeartbeatMs:  cfg.MQTT.Heartbeat.Milliseconds(),
		ListenMs:     cfg.Arbiter.Listen.Milliseconds(),
		GrantMs:      cfg.Arbiter.Interval.Milliseconds(),
		TrendSamples: cfg.Flight.TrendSamples,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP.Addr,
		StorePath:    cfg.Store.Path,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	comp, err := flight.New(flight.Options{
		FlightID:      flightID,
		Version:       version,
		Instruments:   hw.inst,
		GPS:           hw.gps,
		Mux:           hw.mux,
		Pool:          pool,
		Console:       console.NewLineConsole(os.Stdin),
		Out:           os.Stdout,
		Sink:          sinks,
		Tracker:       tracker,
		Recorder:      collector,
		SQLiteVersion: sqliteVersion,
		OnEvent: func(now time.Time, event, reason string) {
			if event == "HEARTBEAT" {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
			}
			publishSystem(publisher, mqttStatus, tracker, now, event, reason, event != "HEARTBEAT")
		},
		Arbiter: arbiter.Config{
			Listen:   cfg.Arbiter.Listen,
			Interval: cfg.Arbiter.Interval,
		},
		TrendSamples: cfg.Flight.TrendSamples,
		HistorySize:  cfg.Flight.HistorySize,
		Heartbeat:    cfg.MQTT.Heartbeat,
		Schedule:     cfg.Schedule,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("init flight computer: %w", err)
	}

	// Publish startup event with full status snapshot
	publishSystem(publisher, mqttStatus, tracker, time.Now(), "STARTUP", "", true)

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, collector.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: flight=%s poll=%v broker=%q store=%q", flightID, cfg.Loop.Poll, cfg.MQTT.Broker, cfg.Store.Path)

	comp.Greet(time.Now())
	if launch {
		if err := comp.Launch(time.Now()); err != nil {
			return fmt.Errorf("launch: %w", err)
		}
	}

	ticker := time.NewTicker(cfg.Loop.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(comp, publisher, mqttStatus, tracker, time.Now, ticker.C, sigCh)
}

// runLoop drives the computer until a signal arrives or the operator quits.
// Both end with a retained SHUTDOWN event.
func runLoop(comp *flight.Computer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			publishSystem(publisher, mqttStatus, tracker, now(), "SHUTDOWN", signalName(s), true)
			return nil

		case <-tick:
			err := comp.Tick(now())
			refreshMQTT(tracker, mqttStatus)
			if errors.Is(err, console.ErrQuit) {
				log.Printf("operator quit, shutting down")
				publishSystem(publisher, mqttStatus, tracker, now(), "SHUTDOWN", "QUIT", true)
				return nil
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// publishSystem sends a lifecycle event carrying the current status
// snapshot. A nil publisher (MQTT disabled) only logs.
func publishSystem(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now time.Time, event, reason string, retained bool) {
	if publisher == nil {
		log.Printf("event: %s %s", event, reason)
		return
	}
	ev := mqtt.SystemEvent{
		Timestamp: now,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if tracker != nil {
		refreshMQTT(tracker, mqttStatus)
		ev.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), event, reason)
	}
	name := strings.ToLower(event)
	if err := publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
	} else {
		log.Printf("published %s event", name)
	}
}

// refreshMQTT copies the broker connection and outbox depth into the
// tracker.
func refreshMQTT(tracker *status.Tracker, mqttStatus mqtt.ConnectionStatus) {
	if tracker == nil || mqttStatus == nil {
		return
	}
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	tracker.SetMQTTBuffered(mqttStatus.Buffered())
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// printInstruments reads every instrument once, the same way the console
// commands do.
func printInstruments(out io.Writer, inst flight.Instruments) {
	shell := console.NewShell(out, console.Instruments{
		Pressure:        inst.Pressure,
		Exterior:        inst.Exterior,
		Interior:        inst.Interior,
		CPU:             inst.CPU,
		ADC:             inst.ADC,
		HumidityChannel: inst.HumidityChannel,
		ADCTempChannel:  inst.ADCTempChannel,
	}, version, nil)

	for _, r := range []struct {
		label string
		kind  console.Kind
	}{
		{"Altitude (m)", console.PrintAltitude},
		{"Pressure (Pa)", console.PrintPressure},
		{"Exterior (C)", console.PrintExteriorTemp},
		{"Interior (C)", console.PrintInteriorTemp},
		{"CPU (C)", console.PrintCPUTemp},
		{"ADC temp", console.PrintADCTemp},
		{"Humidity (%)", console.PrintHumidity},
	} {
		fmt.Fprintf(out, "%-14s ", r.label+":")
		shell.Execute(console.Command{Kind: r.kind})
	}
}
