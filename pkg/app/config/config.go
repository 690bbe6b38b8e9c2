package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"luxlink/pkg/optic"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Flag        FlagConfig        `yaml:"-"`
	Log         LogConfig         `yaml:"log"`
	Timing      TimingConfig      `yaml:"timing"`
	Receiver    ReceiverConfig    `yaml:"receiver"`
	Transmitter TransmitterConfig `yaml:"transmitter"`
	Responder   ResponderConfig   `yaml:"responder"`
	Webserver   WebserverConfig   `yaml:"webserver"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Version    bool
	LogLevel   string
	ConfigFile string
}

// TimingConfig defines the frame timing section of the configuration file.
// Sender and receiver must use identical values, the timing is never
// transmitted on the optical link itself. Durations are in milliseconds.
type TimingConfig struct {
	StartDurationInt          int                `yaml:"startduration"`
	BitDurationInt            int                `yaml:"bitduration"`
	EndDurationInt            int                `yaml:"endduration"`
	ToleranceFactor           float64            `yaml:"tolerancefactor"`
	BrightnessChangeThreshold float64            `yaml:"brightnessthreshold"`
	CalibrationSampleCount    int                `yaml:"calibrationsamples"`
	Timing                    optic.TimingConfig `yaml:"-"`
}

// ReceiverConfig defines the struct of the receive side configuration.
type ReceiverConfig struct {
	// Device is the capture device id of the camera delivering brightness samples.
	Device int `yaml:"device"`
	// AbsoluteLevel selects the absolute classifier fallback when > 0;
	// 0 keeps the baseline-relative (differential) classifier.
	AbsoluteLevel float64 `yaml:"absolutelevel"`
}

// TransmitterConfig defines the struct of the transmit side configuration.
type TransmitterConfig struct {
	// Gpio is the GPIO line driving the light source.
	Gpio int `yaml:"gpio"`
	// Backend selects the renderer: chardev, memmap or emu.
	Backend string `yaml:"backend"`
}

// ResponderConfig defines the challenge/response application policy.
// On every decoded byte c the transmitter answers with (c+offset) mod 256.
type ResponderConfig struct {
	Enabled bool `yaml:"enabled"`
	Offset  int  `yaml:"offset"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// LogConfig defines the struct of the log configuration and configuration file
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	t := optic.DefaultTimingConfig()

	return &Config{
		Flag: FlagConfig{},
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Timing: TimingConfig{
			StartDurationInt:          int(t.StartDuration / time.Millisecond),
			BitDurationInt:            int(t.BitDuration / time.Millisecond),
			EndDurationInt:            int(t.EndDuration / time.Millisecond),
			ToleranceFactor:           t.ToleranceFactor,
			BrightnessChangeThreshold: t.BrightnessChangeThreshold,
			CalibrationSampleCount:    t.CalibrationSampleCount,
		},
		Receiver: ReceiverConfig{
			Device: 0,
		},
		Transmitter: TransmitterConfig{
			Gpio:    18,
			Backend: "chardev",
		},
		Responder: ResponderConfig{
			Enabled: false,
			Offset:  10,
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "tcp://127.0.0.1:1883",
			Topic:      "/luxlink/decoded",
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if err := c.setLogConfig(); err != nil {
		return fmt.Errorf("unable to open log file %q: %w", c.Log.FileString, err)
	}

	c.Timing.Timing = optic.TimingConfig{
		StartDuration:             time.Duration(c.Timing.StartDurationInt) * time.Millisecond,
		BitDuration:               time.Duration(c.Timing.BitDurationInt) * time.Millisecond,
		EndDuration:               time.Duration(c.Timing.EndDurationInt) * time.Millisecond,
		ToleranceFactor:           c.Timing.ToleranceFactor,
		BrightnessChangeThreshold: c.Timing.BrightnessChangeThreshold,
		CalibrationSampleCount:    c.Timing.CalibrationSampleCount,
	}

	if err := c.Timing.Timing.Validate(); err != nil {
		return fmt.Errorf("invalid timing section: %w", err)
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setLogConfig() (err error) {
	// defines Log section of global.Config
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Log.Flag = debug.Standard
	}

	switch c.Log.FileString {
	case "stderr":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		if c.Log.File, err = os.OpenFile(c.Log.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
