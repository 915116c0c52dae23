package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger wires bus hooks to a logger so every publish,
// drop, and subscriber panic shows up in the debug stream. Drops are
// logged at warn level since they mean the buffer is undersized for
// the current pass rate.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, _ any) {
		logger.Debug().Str("event", string(event)).Msg("event published")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped, buffer full")
	})

	bus.OnPanic(func(event Event, payload any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("payload_type", fmt.Sprintf("%T", payload)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("event subscriber panicked")
	})
}
