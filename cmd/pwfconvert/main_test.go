package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="Wahoo" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Canal loop</name>
    <type>running</type>
    <trkseg>
      <trkpt lat="52.3702" lon="4.8952"><time>2026-07-01T06:00:00Z</time></trkpt>
      <trkpt lat="52.3706" lon="4.8958"><time>2026-07-01T06:00:10Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("PWFCONVERT_LOG_LEVEL", "")
	t.Setenv("PWFCONVERT_FTP", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.gpx"), []byte(trackGPX), 0o600))
	return dir
}

func TestConvertWritesDestination(t *testing.T) {
	dir := setup(t)
	dst := filepath.Join(dir, "run.yaml")
	var stdout, stderr bytes.Buffer
	code := run([]string{"convert", filepath.Join(dir, "run.gpx"), dst, "--verbose"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(out), "history_version: 1")
	assert.Contains(t, string(out), "title: Canal loop")

	stdout.Reset()
	code = run([]string{"validate", dst}, &stdout, &stderr)
	assert.Equal(t, 0, code, stdout.String())
	assert.Contains(t, stdout.String(), "history document is valid")
}

func TestConvertToStdoutWithColumns(t *testing.T) {
	dir := setup(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"convert", "--to", "csv", "--columns", "position", filepath.Join(dir, "run.gpx"), "-"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "timestamp,elapsed_s,latitude,longitude\n")
	assert.Contains(t, stdout.String(), "2026-07-01T06:00:10Z,10,52.3706,4.8958\n")
}

func TestConvertFailures(t *testing.T) {
	dir := setup(t)
	src := filepath.Join(dir, "run.gpx")
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run([]string{"convert", src, filepath.Join(dir, "run.fit")}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unsupported format")

	assert.Equal(t, 1, run([]string{"convert", filepath.Join(dir, "missing.gpx"), filepath.Join(dir, "x.tcx")}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"convert", src}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"convert", src, filepath.Join(dir, "out.kml")}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"convert", "--columns", "vo2", src, filepath.Join(dir, "out.csv")}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"convert", "--config", filepath.Join(dir, "nope.json"), src, filepath.Join(dir, "out.csv")}, &stdout, &stderr))
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"explode"}, &stdout, &stderr))
}

func TestValidateReportsIssues(t *testing.T) {
	dir := setup(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("history_version: 2\nexported_at: \"2026-05-01T09:00:00Z\"\nworkouts: []\n"), 0o600))
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"validate", bad}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "PWF-H001")
	assert.Contains(t, stdout.String(), "PWF-H003")
}

func TestInfo(t *testing.T) {
	dir := setup(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"info", filepath.Join(dir, "run.gpx")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Workout: Canal loop (running)")
}
