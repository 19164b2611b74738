package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/moonquake"
	"github.com/phanxgames/moonquake/catalog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "type,lat,long,depth,date\n" +
	"M,1.2,-16.49,867,7107171200\n" +
	"SH,11.99,49.33,,7206021545\n"

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "quakedata.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestRun_JSONAndSQLite(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir)
	out := filepath.Join(dir, "quakedata.json")
	dbPath := filepath.Join(dir, "quakes.db")
	geo := filepath.Join(dir, "quakes.geojson")

	var logs bytes.Buffer
	err := run(t.Context(), []string{
		"--config", dir,
		"--in", in,
		"--out", out,
		"--sqlitePath", dbPath,
		"--geojson", geo,
	}, &logs)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "CSV parsed")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	events, err := catalog.ReadEvents(f)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "M", events[0].Type)

	db, err := catalog.OpenDB(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.Events(t.Context())
	require.NoError(t, err)
	assert.Equal(t, events, stored)
	landers, err := db.Landers(t.Context())
	require.NoError(t, err)
	assert.Len(t, landers, len(moonquake.DefaultLanders()))

	data, err := os.ReadFile(geo)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2+len(moonquake.DefaultLanders()))
}

func TestRun_MissingInput(t *testing.T) {
	err := run(t.Context(), []string{"--config", t.TempDir()}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--in is required")
}

func TestRun_MalformedCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(in, []byte("type,lat,long,depth,date\nM,x,0,0,7107171200\n"), 0644))

	err := run(t.Context(), []string{"--config", dir, "--in", in}, &bytes.Buffer{})
	assert.ErrorIs(t, err, catalog.ErrMalformedRecord)
}

func TestRun_BadTimeZone(t *testing.T) {
	dir := t.TempDir()
	err := run(t.Context(), []string{"--config", dir, "--in", writeCSV(t, dir), "--tz", "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time zone")
}
