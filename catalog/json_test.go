package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phanxgames/moonquake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	data := `[{"type":"M","long":-16.49,"lat":1.2,"date":77287560000},
	          {"type":"A12","long":-23.42,"lat":-3.94,"date":58000000000.4}]`

	got, err := ReadEvents(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []moonquake.RawEvent{
		{Type: "M", Long: -16.49, Lat: 1.2, Date: 77287560000},
		{Type: "A12", Long: -23.42, Lat: -3.94, Date: 58000000000},
	}, got)
}

func TestReadEvents_NullDate(t *testing.T) {
	data := `[{"type":"M","long":0,"lat":0,"date":1},{"type":"M","long":0,"lat":0,"date":null}]`

	_, err := ReadEvents(strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDate)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadEvents_AbsentDate(t *testing.T) {
	_, err := ReadEvents(strings.NewReader(`[{"type":"M","long":0,"lat":0}]`))
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestReadEvents_InvalidJSON(t *testing.T) {
	_, err := ReadEvents(strings.NewReader(`{"type":"M"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}

func TestReadLanders(t *testing.T) {
	got, err := ReadLanders(strings.NewReader(`[{"type":"12 LM","long":-23.42,"lat":-3.94,"date":0}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12 LM", got[0].Type)
}

func TestWriteEventsReadable(t *testing.T) {
	events := []moonquake.RawEvent{{Type: "SH", Long: 49.33, Lat: 11.99, Date: 88194900000}}

	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, events))
	assert.JSONEq(t, `[{"type":"SH","long":49.33,"lat":11.99,"date":88194900000}]`, buf.String())

	back, err := ReadEvents(&buf)
	require.NoError(t, err)
	assert.Equal(t, events, back)
}

func TestWriteEvents_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}
