package app

import (
	"fmt"
	"net/url"

	"luxlink/pkg/app/config"
	"luxlink/pkg/camera"
	"luxlink/pkg/framerx"
	"luxlink/pkg/frametx"
	"luxlink/pkg/led"
	"luxlink/pkg/lightlevel"
	"luxlink/pkg/mqtt"
	"luxlink/pkg/sampler"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// Source is the brightness sample source with its capture device release.
type Source interface {
	sampler.Source
	Close() error
}

// Renderer is the symbol renderer with its hardware release.
type Renderer interface {
	frametx.Renderer
	Close() error
}

// sessionResult is the outcome of one receive session.
type sessionResult struct {
	value byte
	err   error
}

// App is the main application struct, it is where the pieces are wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// source delivers brightness samples (camera by default)
	source Source

	// renderer drives the light source of the transmit side
	renderer Renderer

	// rx is the frame receiver state machine
	rx *framerx.Receiver

	// driver ticks the receiver against the wall clock
	driver *sampler.Driver

	// sessions carries each session outcome from the driver goroutine
	// to the service loop
	sessions chan sessionResult

	// link is the last decoded byte and the session counters
	link linkState

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the Web server URL and initialize the main app structure
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    cfg,
		urlParsed: u,

		web:  fiber.New(),
		mqtt: mqtt.New(),

		sessions: make(chan sessionResult, 1),
		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.service()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	timing := app.config.Timing.Timing

	if app.source, err = camera.Open(app.config.Receiver.Device); err != nil {
		debug.ErrorLog.Printf("can't open capture device: %v", err)
		return err
	}

	if app.rx, err = framerx.New(timing, app.classifier()); err != nil {
		debug.ErrorLog.Printf("can't create receiver: %v", err)
		return err
	}

	app.rx.OnDecoded(func(v byte) {
		app.sessions <- sessionResult{value: v}
	})
	app.rx.OnError(func(err error) {
		app.sessions <- sessionResult{err: err}
	})

	if app.driver, err = sampler.New(app.rx, app.source, sampler.Interval(timing), nil); err != nil {
		debug.ErrorLog.Printf("can't create sampling driver: %v", err)
		return err
	}

	if app.config.Responder.Enabled {
		if app.renderer, err = OpenRenderer(app.config); err != nil {
			debug.ErrorLog.Printf("can't open renderer: %v", err)
			return err
		}
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initRoutes and initDefaultRoutes should be always called last because it may access things like app.api
	// which must be initialized before in initAPI()
	app.initDefaultRoutes()

	return nil
}

// classifier builds the sample classifier from the configuration. The
// baseline-relative (differential) classifier is the default, a configured
// absolute level selects the degraded fallback.
func (app *App) classifier() lightlevel.Classifier {
	if level := app.config.Receiver.AbsoluteLevel; level > 0 {
		debug.InfoLog.Printf("using absolute classifier at level %.1f", level)
		return lightlevel.Absolute{Level: level}
	}
	return lightlevel.Differential{Threshold: app.config.Timing.Timing.BrightnessChangeThreshold}
}

// OpenRenderer opens the configured transmit backend.
func OpenRenderer(cfg *config.Config) (Renderer, error) {
	switch b := cfg.Transmitter.Backend; b {
	case "emu":
		return led.NewEmu(), nil
	case "memmap":
		return led.OpenMem(cfg.Transmitter.Gpio)
	case "", "chardev":
		return led.Open(cfg.Transmitter.Gpio)
	default:
		return nil, fmt.Errorf("unknown transmitter backend %q", b)
	}
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/main.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/main.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	close(app.shutdown)

	if app.driver != nil {
		app.driver.Stop()
	}
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}
	if app.renderer != nil {
		_ = app.renderer.Close()
	}
	if app.source != nil {
		_ = app.source.Close()
	}
	return nil
}
