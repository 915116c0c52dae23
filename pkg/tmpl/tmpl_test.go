package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "plain text",
			tmpl: "rule fired",
			data: nil,
			want: "rule fired",
		},
		{
			name: "fields",
			tmpl: "{{ .Title }} for task {{ .TaskID }}",
			data: map[string]any{"Title": "Notify planner", "TaskID": "tsk_abc"},
			want: "Notify planner for task tsk_abc",
		},
		{
			name: "join function",
			tmpl: `items: {{ join .Items ", " }}`,
			data: map[string]any{"Items": []string{"ord-1", "ord-2"}},
			want: "items: ord-1, ord-2",
		},
		{
			name:    "invalid syntax",
			tmpl:    "{{ .Broken",
			data:    nil,
			wantErr: true,
		},
		{
			name:    "missing key",
			tmpl:    "{{ .Missing }}",
			data:    map[string]any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoteBlock(t *testing.T) {
	assert.Empty(t, NoteBlock(""))
	assert.Empty(t, NoteBlock("   \n"))
	assert.Equal(t, "\n\n---\nNote:\ncheck capacity", NoteBlock("check capacity"))
}
