// Package bubble relays events between an embedded instance and the
// orchestrating instance it lives in, under identical event names.
package bubble

import "github.com/AaronLay10/GameMap/internal/content"

// Up relays every name event raised by origin to target. While the relay
// runs, target's bubbling flag is set so a Down relay listening on target
// does not echo the event straight back to the children. The flag is set and
// cleared synchronously around the single Trigger call.
func Up(origin content.Emitter, name string, target content.Relay) {
	origin.On(name, func(ev content.Event) {
		target.SetBubblingUpwards(true)
		target.Trigger(name, ev)
		target.SetBubblingUpwards(false)
	})
}

// Down relays every name event raised by origin to each target, unless
// origin is currently relaying upward. deliver gates each delivery; targets
// for which it returns false drop the event.
func Down(origin content.Relay, name string, targets []content.Emitter, deliver func() bool) {
	origin.On(name, func(ev content.Event) {
		if origin.BubblingUpwards() {
			return
		}
		for _, t := range targets {
			if deliver != nil && !deliver() {
				continue
			}
			t.Trigger(name, ev)
		}
	})
}
