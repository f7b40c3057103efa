package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedFields(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		want   []string
	}{
		{name: "identical", before: map[string]any{"a": 1.0}, after: map[string]any{"a": 1.0}, want: nil},
		{name: "value changed", before: map[string]any{"a": 1.0, "b": "x"}, after: map[string]any{"a": 2.0, "b": "x"}, want: []string{"a"}},
		{name: "key added and removed", before: map[string]any{"a": 1.0}, after: map[string]any{"b": 1.0}, want: []string{"a", "b"}},
		{name: "nested structure", before: map[string]any{"n": map[string]any{"x": 1.0}}, after: map[string]any{"n": map[string]any{"x": 2.0}}, want: []string{"n"}},
		{name: "only updated_at", before: map[string]any{"updated_at": "t1"}, after: map[string]any{"updated_at": "t2"}, want: nil},
		{name: "null to value", before: map[string]any{"a": nil}, after: map[string]any{"a": "set"}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, changedFields(tt.before, tt.after))
		})
	}
}

func TestSnapshotRejectsNonObjects(t *testing.T) {
	_, _, err := snapshot([]string{"a"})
	require.Error(t, err)

	raw, fields, err := snapshot((*struct{})(nil))
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Nil(t, fields)
}
