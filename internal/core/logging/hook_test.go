package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both item_id and pass_id",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithItemID(ctx, "itm-123")
				ctx = WithPassID(ctx, "pass-456")
				return ctx
			},
			wantKeys: []string{"item_id", "pass_id"},
		},
		{
			name: "only item_id",
			setupCtx: func() context.Context {
				return WithItemID(context.Background(), "itm-123")
			},
			wantKeys:  []string{"item_id"},
			wantEmpty: []string{"pass_id"},
		},
		{
			name: "only pass_id",
			setupCtx: func() context.Context {
				return WithPassID(context.Background(), "pass-456")
			},
			wantKeys:  []string{"pass_id"},
			wantEmpty: []string{"item_id"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"item_id", "pass_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
