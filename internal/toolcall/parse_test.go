package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Invocation
		wantErr error
	}{
		{
			name:    "valid call",
			content: `<name>search_college_data</name><parameters>{"query":"MIT"}</parameters>`,
			want: Invocation{
				Name:       "search_college_data",
				Parameters: map[string]any{"query": "MIT"},
			},
		},
		{
			name:    "whitespace around sub-tags",
			content: "\n<name>geocode_location</name>\n<parameters>{\"city\":\"Boston\"}</parameters>\n",
			want: Invocation{
				Name:       "geocode_location",
				Parameters: map[string]any{"city": "Boston"},
			},
		},
		{
			name:    "empty parameters object",
			content: `<name>t</name><parameters>{}</parameters>`,
			want:    Invocation{Name: "t", Parameters: map[string]any{}},
		},
		{
			name:    "missing name",
			content: `<parameters>{}</parameters>`,
			wantErr: ErrMalformedCall,
		},
		{
			name:    "missing parameters",
			content: `<name>x</name>`,
			wantErr: ErrMalformedCall,
		},
		{
			name:    "invalid JSON",
			content: `<name>X</name><parameters>{not valid json}</parameters>`,
			wantErr: ErrBadParameters,
		},
		{
			name:    "JSON array instead of object",
			content: `<name>X</name><parameters>[1,2]</parameters>`,
			wantErr: ErrBadParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseInvocation(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrettyResult(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain text", prettyResult("plain text"))
	assert.Equal(t, "{\n  \"a\": 1\n}", prettyResult(`{"a":1}`))
}
