package ports

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDSequence_JSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want IDSequence
	}{
		{"array", `{"order":[3,1,2]}`, IDSequence{3, 1, 2}},
		{"string array", `{"order":["3","1"]}`, IDSequence{3, 1}},
		{"comma string", `{"order":"4, 5,,6"}`, IDSequence{4, 5, 6}},
		{"empty string", `{"order":""}`, IDSequence{}},
		{"missing", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MoveTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Order)
		})
	}
}

func TestIDSequence_Invalid(t *testing.T) {
	var req MoveTaskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"order":"1,x"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"order":{"a":1}}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"order":[1.5]}`), &req))
}

func TestIDSequence_Param(t *testing.T) {
	var s IDSequence
	require.NoError(t, s.UnmarshalParam("10,20,30"))
	assert.Equal(t, IDSequence{10, 20, 30}, s)
}
