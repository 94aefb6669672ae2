package rank

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONArray(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantRepair bool
	}{
		{
			name:  "bare array",
			input: `[{"index": 0, "score": 0.9}]`,
			want:  `[{"index": 0, "score": 0.9}]`,
		},
		{
			name:  "json fence",
			input: "```json\n[{\"index\": 0}]\n```",
			want:  `[{"index": 0}]`,
		},
		{
			name:  "plain fence",
			input: "```\n[{\"index\": 1}]\n```",
			want:  `[{"index": 1}]`,
		},
		{
			name:  "surrounding prose",
			input: `Here are the scores: [{"index": 0, "score": 0.5}] Hope that helps!`,
			want:  `[{"index": 0, "score": 0.5}]`,
		},
		{
			name:       "truncated mid object",
			input:      `[{"index": 0, "score": 0.9}, {"index": 1, "score": 0.4`,
			want:       `[{"index": 0, "score": 0.9}, {"index": 1, "score": 0.4}]`,
			wantRepair: true,
		},
		{
			name:       "truncated after comma",
			input:      `[{"index": 0, "score": 0.9},`,
			want:       `[{"index": 0, "score": 0.9}]`,
			wantRepair: true,
		},
		{
			name:       "truncated inside string",
			input:      `[{"index": 0, "reasons": ["matches qu`,
			want:       `[{"index": 0, "reasons": ["matches qu"]}]`,
			wantRepair: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired := cleanJSONArray(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRepair, repaired)

			var parsed []map[string]any
			require.NoError(t, json.Unmarshal([]byte(got), &parsed), "cleaned output should be valid JSON")
		})
	}
}

func TestRepairTruncatedJSON_NestedDelimiters(t *testing.T) {
	in := `[{"index": 0, "reasons": ["a", "b"`
	out := repairTruncatedJSON(in)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed, 1)
}
