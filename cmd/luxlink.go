package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"luxlink/pkg/app"
	"luxlink/pkg/app/config"
	"luxlink/pkg/frametx"
	"luxlink/pkg/sampler"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "optical on/off keyed byte link over a light source and a camera",
		Version: app.VERSION,
		Description: "Transfer single bytes between two devices over light:" +
			"\n the sender holds a light source on/off in timed symbols (start, 8 bits msb first, end)" +
			"\n and the receiver decodes them from periodic camera brightness samples," +
			"\n calibrated against the ambient light level. Both sides must share the same timing section.",
		UsageText: "luxlink [--config <file>] [--log error|debug|trace] [command]" +
			"\n\nEXAMPLE:" +
			"\n\tlisten for frames with the configuration file luxlink.yaml" +
			"\n\t\tluxlink --config /opt/womat/luxlink.yaml listen" +
			"\n\ttransmit the byte 42 on the configured light source" +
			"\n\t\tluxlink --config /opt/womat/luxlink.yaml send --value 42",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "standard", Usage: "`LEVEL` defines the log level (fatal|info|warning|error|debug|trace)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "listen",
				Usage: "receive frames and serve the decoded bytes",
				Action: func(ctx *cli.Context) error {
					return listen(cfg)
				},
			},
			{
				Name:  "send",
				Usage: "transmit one byte on the configured light source",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "value", Aliases: []string{"v"}, Required: true, Usage: "the byte `VALUE` (0-255) to transmit"},
				},
				Action: func(ctx *cli.Context) error {
					return send(cfg, ctx.Int("value"))
				},
			},
		},
		Action: func(ctx *cli.Context) error {
			return listen(cfg)
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
	return
}

// listen runs the receive service until an exit signal arrives.
func listen(cfg *config.Config) error {
	if err := cfg.LoadConfig(); err != nil {
		return err
	}

	debug.SetDebug(cfg.Log.File, cfg.Log.Flag)
	defer func() {
		debug.InfoLog.Printf("closing log file %s", cfg.Log.FileString)
		_ = cfg.Log.File.Close()
	}()

	a, err := app.New(cfg)
	defer func() {
		debug.InfoLog.Printf("closing app %s", app.Version())
		_ = a.Close()
	}()

	if err != nil {
		return err
	}

	debug.InfoLog.Printf("starting app %s", app.Version())
	if err = a.Run(); err != nil {
		return err
	}

	// capture exit signals to ensure resources are released on exit.
	quit := make(chan os.Signal)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// wait for am os.Interrupt signal (CTRL C)
	sig := <-quit
	debug.InfoLog.Printf("Got %s signal. Aborting...", sig)

	return nil
}

// send transmits one byte and waits until the sequence has played.
// An exit signal cancels the sequence and leaves the light source off.
func send(cfg *config.Config, value int) error {
	if value < 0 || value > 255 {
		return fmt.Errorf("value %d out of range 0-255", value)
	}

	if err := cfg.LoadConfig(); err != nil {
		return err
	}

	debug.SetDebug(cfg.Log.File, cfg.Log.Flag)
	defer func() { _ = cfg.Log.File.Close() }()

	renderer, err := app.OpenRenderer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = renderer.Close() }()

	done := make(chan struct{})
	seq, err := frametx.NewSequencer(byte(value), cfg.Timing.Timing, renderer, func() { close(done) })
	if err != nil {
		return err
	}

	cancel, err := sampler.Send(seq, sampler.Interval(cfg.Timing.Timing), nil)
	if err != nil {
		return err
	}

	quit := make(chan os.Signal)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	debug.InfoLog.Printf("transmitting %d (%08b)", value, value)

	select {
	case <-done:
		debug.InfoLog.Print("transmission complete")
	case sig := <-quit:
		debug.InfoLog.Printf("Got %s signal. Aborting...", sig)
		cancel()
	}

	return nil
}
