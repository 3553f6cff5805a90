package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommandRequiresType(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"pos":{"x":1,"y":2}}`))
	require.Error(t, err)

	_, err = DecodeCommand([]byte(`not json`))
	require.Error(t, err)
}

func TestCommandRoundTrip(t *testing.T) {
	in := Command{Type: CmdMove, Pos: &Vec{X: 1.5, Y: -2}, Facing: 0.25}
	data, err := EncodeCommand(in)
	require.NoError(t, err)

	out, err := DecodeCommand(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestBroadcastOmitsEmptyFields(t *testing.T) {
	data, err := EncodeBroadcast(Broadcast{
		Type:     EvtVarChanged,
		EntityID: "e1",
		Var:      VarHealth,
		Version:  3,
		Value:    json.RawMessage("70"),
	})
	require.NoError(t, err)

	// Per-tick frames stay small: nothing but the fields that matter.
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	require.Len(t, m, 5)

	out, err := DecodeBroadcast(data)
	require.NoError(t, err)
	require.Equal(t, uint64(3), out.Version)
}
