package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/hdf5"
)

func TestExpandLists(t *testing.T) {
	strs := map[string]bool{"input_files": true}
	ints := map[string]bool{"out_shape": true}

	got := expandLists([]string{"--input_files", "a.h5", "b.h5", "--out_shape", "-1", "3", "--slice", "2"}, strs, ints)
	assert.Equal(t, []string{
		"--input_files=a.h5", "--input_files=b.h5",
		"--out_shape=-1", "--out_shape=3",
		"--slice", "2",
	}, got)

	got = expandLists([]string{"--input_files=a.h5,b.h5", "--out_shape"}, strs, ints)
	assert.Equal(t, []string{"--input_files=a.h5,b.h5", "--out_shape"}, got)
}

func TestListFlags(t *testing.T) {
	var s stringList
	require.NoError(t, s.Set("a, b"))
	require.NoError(t, s.Set("c"))
	assert.Equal(t, stringList{"a", "b", "c"}, s)

	var n intList
	require.NoError(t, n.Set("4,-1"))
	assert.Equal(t, intList{4, -1}, n)
	assert.Equal(t, "4,-1", n.String())
	assert.Error(t, n.Set("x"))
}

func TestConfigureLogging(t *testing.T) {
	t.Setenv(logLevelEnv, "ERROR")
	_, err := configureLogging(&bytes.Buffer{}, "")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, logLevel.Level())

	_, err = configureLogging(&bytes.Buffer{}, "debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, logLevel.Level())

	_, err = configureLogging(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}

func TestRunTranspose(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.h5")
	out := filepath.Join(dir, "out.h5")
	f, err := hdf5.Create(in)
	require.NoError(t, err)
	_, err = f.Root().CreateDataset("data", []uint64{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var stderr bytes.Buffer
	code := run([]string{"transpose", "--input_files", in, "--output_files", out, "--log_level", "INFO"}, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), "Processing")

	g, err := hdf5.Open(out)
	require.NoError(t, err)
	defer g.Close()
	ds, err := g.OpenDataset("data")
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2}, ds.Shape())
	data, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, data)
}

func TestRunFailures(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"frobnicate"}, &stderr))
	assert.Contains(t, stderr.String(), `function \"frobnicate\" not found`)

	stderr.Reset()
	assert.Equal(t, 1, run(nil, &stderr))
	assert.Contains(t, stderr.String(), "no function given")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing.h5")
	assert.Equal(t, 1, run([]string{"extract_field", "--input_files", missing, "--output_files", "x", "--data_fields", "data"}, &stderr))
	assert.Contains(t, stderr.String(), "level=ERROR")
}
