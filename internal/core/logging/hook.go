package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts item_id and pass_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if itemID := GetItemID(ctx); itemID != "" {
		e.Str("item_id", itemID)
	}

	if passID := GetPassID(ctx); passID != "" {
		e.Str("pass_id", passID)
	}
}
