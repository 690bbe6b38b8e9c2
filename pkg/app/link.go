package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"luxlink/pkg/framerx"
	"luxlink/pkg/frametx"
	"luxlink/pkg/mqtt"
	"luxlink/pkg/sampler"

	"github.com/womat/debug"
)

// LinkStatus is the last decoded byte together with the session counters.
type LinkStatus struct {
	TimeStamp    time.Time
	Value        byte
	Binary       string
	Decoded      uint64
	Timeouts     uint64
	Malformed    uint64
	BaselineLost uint64
}

// linkState guards the LinkStatus shared between the service loop and the
// web handler.
type linkState struct {
	sync.Mutex
	data LinkStatus
}

// GetLinkStatus returns a snapshot of the link status.
func (app *App) GetLinkStatus() LinkStatus {
	app.link.Lock()
	defer app.link.Unlock()
	return app.link.data
}

// service runs receive sessions back to back. Every decoded byte is stored,
// published to mqtt and, with the responder enabled, answered on the
// transmit side. Failed sessions only bump their error counter, recovery is
// a fresh session.
func (app *App) service() {
	for {
		select {
		case <-app.shutdown:
			return
		default:
		}

		app.driver.Wait()
		app.rx.Reset()

		if err := app.driver.Start(); err != nil {
			debug.ErrorLog.Printf("can't start receive session: %v", err)
			time.Sleep(time.Second)
			continue
		}

		select {
		case <-app.shutdown:
			app.driver.Stop()
			return
		case res := <-app.sessions:
			app.record(res)

			if res.err == nil && app.config.Responder.Enabled {
				app.respond(res.value)
			}
		}
	}
}

// record updates the link status and publishes it.
func (app *App) record(res sessionResult) {
	app.link.Lock()

	switch {
	case res.err == nil:
		app.link.data.TimeStamp = time.Now()
		app.link.data.Value = res.value
		app.link.data.Binary = fmt.Sprintf("%08b", res.value)
		app.link.data.Decoded++
	case errors.Is(res.err, framerx.ErrFramingTimeout):
		app.link.data.Timeouts++
	case errors.Is(res.err, framerx.ErrMalformedFrame):
		app.link.data.Malformed++
	case errors.Is(res.err, framerx.ErrBaselineLost):
		app.link.data.BaselineLost++
	}

	status := app.link.data
	app.link.Unlock()

	if res.err != nil {
		debug.DebugLog.Printf("receive session failed, listening again: %v", res.err)
		return
	}

	app.sendMQTT(app.config.MQTT.Topic, status)
}

// respond transmits the challenge/response answer (value+offset) mod 256.
// It blocks the service loop until the frame has played, the shared light
// source must not carry a response and a new challenge at once.
func (app *App) respond(value byte) {
	answer := byte((int(value) + app.config.Responder.Offset) % 256)
	timing := app.config.Timing.Timing

	done := make(chan struct{})
	seq, err := frametx.NewSequencer(answer, timing, app.renderer, func() { close(done) })
	if err != nil {
		debug.ErrorLog.Printf("can't build response sequence: %v", err)
		return
	}

	cancel, err := sampler.Send(seq, sampler.Interval(timing), nil)
	if err != nil {
		debug.ErrorLog.Printf("can't send response: %v", err)
		return
	}

	debug.InfoLog.Printf("responding %d to challenge %d", answer, value)

	select {
	case <-done:
	case <-app.shutdown:
		cancel()
	}
}

// sendMQTT send message struct to the mqtt broker.
func (app *App) sendMQTT(topic string, message interface{}) {
	go func(t string, r interface{}) {
		debug.TraceLog.Printf("prepare mqtt message %v %v", t, r)

		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    t,
			Payload:  b,
		}
	}(topic, message)
}
