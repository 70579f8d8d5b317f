package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMeta(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Meta
		wantErr bool
	}{
		{name: "empty", data: "", want: Meta{}},
		{name: "null", data: "null", want: Meta{}},
		{name: "object", data: `{"zone":"eu","port":8080}`, want: Meta{"zone": "eu", "port": json.Number("8080")}},
		{name: "large integer", data: `{"id":9007199254740993}`, want: Meta{"id": json.Number("9007199254740993")}},
		{name: "nested", data: `{"a":{"b":[1,2.5]}}`, want: Meta{"a": map[string]any{"b": []any{json.Number("1"), json.Number("2.5")}}}},
		{name: "not an object", data: `[1]`, wantErr: true},
		{name: "garbage", data: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMeta([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeta_RoundTripKeepsDigits(t *testing.T) {
	in := `{"meta":{"big":18446744073709551615,"neg":-9007199254740993,"ratio":0.1000000000000000055511151231257827}}`

	var instance Instance
	require.NoError(t, json.Unmarshal([]byte(in), &instance))
	out, err := json.Marshal(struct {
		Meta Meta `json:"meta"`
	}{instance.Meta})
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Contains(t, string(out), "18446744073709551615")
	assert.Contains(t, string(out), "0.1000000000000000055511151231257827")
}
