package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

func TestDecode_ValidMessages(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, msg Message)
	}{
		{
			name: "update cell",
			raw:  `{"command":"updateCell","data":{"row":1,"col":2,"value":"x","tableIndex":3}}`,
			check: func(t *testing.T, msg Message) {
				m, ok := msg.(UpdateCell)
				require.True(t, ok)
				assert.Equal(t, 1, *m.Row)
				assert.Equal(t, 2, *m.Col)
				assert.Equal(t, "x", *m.Value)
				assert.Equal(t, 3, m.Table())
			},
		},
		{
			name: "empty value is allowed",
			raw:  `{"command":"updateHeader","data":{"col":0,"value":""}}`,
			check: func(t *testing.T, msg Message) {
				m := msg.(UpdateHeader)
				assert.Equal(t, "", *m.Value)
				assert.Equal(t, 0, m.Table())
			},
		},
		{
			name: "request without data",
			raw:  `{"command":"requestTableData"}`,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, CmdRequestTableData, msg.Command())
			},
		},
		{
			name: "add row without index appends",
			raw:  `{"command":"addRow","data":{}}`,
			check: func(t *testing.T, msg Message) {
				assert.Nil(t, msg.(AddRow).Index)
			},
		},
		{
			name: "sort",
			raw:  `{"command":"sort","data":{"column":1,"direction":"desc","sortType":"natural"}}`,
			check: func(t *testing.T, msg Message) {
				m := msg.(Sort)
				assert.Equal(t, "desc", m.Direction)
				assert.Equal(t, "natural", m.SortType)
			},
		},
		{
			name: "pong",
			raw:  `{"command":"pong","data":{"timestamp":1700000000000,"responseTime":12}}`,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, int64(12), *msg.(Pong).ResponseTime)
			},
		},
		{
			name: "alignment default",
			raw:  `{"command":"updateAlignment","data":{"col":0,"alignment":"default"}}`,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, "default", msg.(UpdateAlignment).Alignment)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			tt.check(t, msg)
		})
	}
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{name: "not json", raw: `{`},
		{name: "missing command", raw: `{"data":{}}`, wantField: "command"},
		{name: "unknown command", raw: `{"command":"explode"}`},
		{name: "wrong type", raw: `{"command":"updateCell","data":{"row":"one"}}`},
		{name: "missing row", raw: `{"command":"updateCell","data":{"col":0,"value":"x"}}`, wantField: "row"},
		{name: "negative col", raw: `{"command":"updateCell","data":{"row":0,"col":-1,"value":"x"}}`, wantField: "col"},
		{name: "missing value", raw: `{"command":"updateCell","data":{"row":0,"col":0}}`, wantField: "value"},
		{name: "delete row needs index", raw: `{"command":"deleteRow","data":{}}`, wantField: "index"},
		{name: "empty indices", raw: `{"command":"deleteRows","data":{"indices":[]}}`, wantField: "indices"},
		{name: "negative index in list", raw: `{"command":"deleteColumns","data":{"indices":[1,-2]}}`, wantField: "indices"},
		{name: "bad direction", raw: `{"command":"sort","data":{"column":0,"direction":"up"}}`, wantField: "direction"},
		{name: "missing direction", raw: `{"command":"sort","data":{"column":0}}`, wantField: "direction"},
		{name: "bad sort type", raw: `{"command":"sort","data":{"column":0,"direction":"asc","sortType":"color"}}`, wantField: "sortType"},
		{name: "move needs toIndex", raw: `{"command":"moveRow","data":{"fromIndex":0}}`, wantField: "toIndex"},
		{name: "empty csv", raw: `{"command":"exportCSV","data":{"csvContent":""}}`, wantField: "csvContent"},
		{name: "unknown encoding", raw: `{"command":"exportCSV","data":{"csvContent":"a","encoding":"ebcdic"}}`, wantField: "encoding"},
		{name: "pong without timestamp", raw: `{"command":"pong","data":{"responseTime":1}}`, wantField: "timestamp"},
		{name: "negative table index", raw: `{"command":"undo","data":{"tableIndex":-1}}`, wantField: "tableIndex"},
		{name: "bad alignment", raw: `{"command":"updateAlignment","data":{"col":0,"alignment":"justify"}}`, wantField: "alignment"},
		{name: "empty find", raw: `{"command":"findReplace","data":{"find":"","replace":"x"}}`, wantField: "find"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			assert.Nil(t, msg)
			var pe *core.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestEncode(t *testing.T) {
	row, col, value := 1, 0, "v"
	raw, err := Encode(UpdateCell{Row: &row, Col: &col, Value: &value})
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "updateCell", env["command"])

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "v", *msg.(UpdateCell).Value)
}

func TestOutbound_JSON(t *testing.T) {
	out := ValidationError(&core.ProtocolError{Command: "sort", Field: "direction", Message: "is required"})
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"validationError","data":{"command":"sort","field":"direction","message":"is required"}}`, string(b))

	b, err = json.Marshal(HeaderUpdateError(2, assert.AnError))
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"headerUpdateError","data":{"col":2,"error":"`+assert.AnError.Error()+`"}}`, string(b))
}
