// Package config loads the flight computer's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that cannot be flown.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Loop     LoopConfig             `yaml:"loop"`
	Flight   FlightConfig           `yaml:"flight"`
	Schedule map[string]JobOverride `yaml:"schedule"`
	Arbiter  ArbiterConfig          `yaml:"arbiter"`
	Workers  WorkersConfig          `yaml:"workers"`
	MQTT     MQTTConfig             `yaml:"mqtt"`
	Store    StoreConfig            `yaml:"store"`
	GPIO     GPIOConfig             `yaml:"gpio"`
	GPS      GPSConfig              `yaml:"gps"`
	Sensors  SensorsConfig          `yaml:"sensors"`
	Camera   CameraConfig           `yaml:"camera"`
	HTTP     HTTPConfig             `yaml:"http"`
}

type LoopConfig struct {
	Poll time.Duration `yaml:"poll"`
}

type FlightConfig struct {
	// TrendSamples consecutive rising (falling) barometric altitudes move
	// Start to Ascent (Ascent to Descent). 0 disables it.
	TrendSamples int `yaml:"trend_samples"`
	HistorySize  int `yaml:"history_size"`
}

// JobOverride replaces the interval and/or offset of one scheduled job.
// Zero fields keep the built-in value.
type JobOverride struct {
	Interval time.Duration `yaml:"interval"`
	Offset   time.Duration `yaml:"offset"`
}

type ArbiterConfig struct {
	Listen   time.Duration `yaml:"listen"`
	Interval time.Duration `yaml:"interval"`
}

type WorkersConfig struct {
	Count int `yaml:"count"`
	Queue int `yaml:"queue"`
}

type MQTTConfig struct {
	Broker     string        `yaml:"broker"` // empty disables MQTT
	ClientID   string        `yaml:"client_id"`
	BufferSize int           `yaml:"buffer_size"`
	Heartbeat  time.Duration `yaml:"heartbeat"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // empty disables the SQLite sink
}

type GPIOConfig struct {
	Chip string `yaml:"chip"`
}

type GPSConfig struct {
	Port        string        `yaml:"port"`
	Baud        uint          `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type SensorsConfig struct {
	I2CBus          string `yaml:"i2c_bus"`
	BarometerAddr   uint16 `yaml:"barometer_addr"`
	ADCAddr         uint16 `yaml:"adc_addr"`
	HumidityChannel uint8  `yaml:"humidity_channel"`
	ADCTempChannel  uint8  `yaml:"adc_temp_channel"`
	W1Dir           string `yaml:"w1_dir"`
	ExteriorProbe   string `yaml:"exterior_probe"`
	InteriorProbe   string `yaml:"interior_probe"`
	ThermalZone     string `yaml:"thermal_zone"`
}

type CameraConfig struct {
	Script string `yaml:"script"` // empty disables image capture
	Dir    string `yaml:"dir"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the status server
}

// Default returns the configuration of the flight board as built.
func Default() Config {
	return Config{
		Loop:    LoopConfig{Poll: 100 * time.Millisecond},
		Flight:  FlightConfig{HistorySize: 20},
		Arbiter: ArbiterConfig{Listen: 2 * time.Second, Interval: 10 * time.Second},
		Workers: WorkersConfig{Count: 2, Queue: 8},
		MQTT: MQTTConfig{
			ClientID:   "helium",
			BufferSize: 256,
			Heartbeat:  15 * time.Minute,
		},
		Store: StoreConfig{Path: "helium.db"},
		GPIO:  GPIOConfig{Chip: "gpiochip2"},
		GPS: GPSConfig{
			Port:        "/dev/ttyAMA0",
			Baud:        4800,
			ReadTimeout: 500 * time.Millisecond,
		},
		Sensors: SensorsConfig{
			I2CBus:          "1",
			BarometerAddr:   0x77,
			ADCAddr:         0x26,
			HumidityChannel: 2,
			ADCTempChannel:  0x3F,
			W1Dir:           "/sys/bus/w1/devices",
			ExteriorProbe:   "0000025ef092",
			InteriorProbe:   "0000025edf21",
			ThermalZone:     "/sys/class/thermal/thermal_zone0/temp",
		},
		Camera: CameraConfig{Dir: "/mnt/FLASH_DRIVE"},
		HTTP:   HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Loop.Poll <= 0 {
		return fmt.Errorf("%w: loop.poll must be > 0", ErrInvalid)
	}
	if c.Flight.TrendSamples < 0 {
		return fmt.Errorf("%w: flight.trend_samples must be >= 0", ErrInvalid)
	}
	if c.Flight.HistorySize <= 0 {
		return fmt.Errorf("%w: flight.history_size must be > 0", ErrInvalid)
	}
	if c.Arbiter.Listen <= 0 {
		return fmt.Errorf("%w: arbiter.listen must be > 0", ErrInvalid)
	}
	if c.Arbiter.Interval < c.Arbiter.Listen {
		return fmt.Errorf("%w: arbiter.interval must be >= arbiter.listen", ErrInvalid)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("%w: workers.count must be > 0", ErrInvalid)
	}
	if c.Workers.Queue <= 0 {
		return fmt.Errorf("%w: workers.queue must be > 0", ErrInvalid)
	}
	if c.MQTT.Heartbeat <= 0 {
		return fmt.Errorf("%w: mqtt.heartbeat must be > 0", ErrInvalid)
	}
	if c.GPS.Baud == 0 {
		return fmt.Errorf("%w: gps.baud must be > 0", ErrInvalid)
	}
	if c.GPS.ReadTimeout <= 0 {
		return fmt.Errorf("%w: gps.read_timeout must be > 0", ErrInvalid)
	}
	for id, o := range c.Schedule {
		if o.Interval < 0 || o.Offset < 0 {
			return fmt.Errorf("%w: schedule.%s: interval and offset must be >= 0", ErrInvalid, id)
		}
	}
	return nil
}
