package util

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCfg struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

func TestConfigRoundTrip(t *testing.T) {

	path := filepath.Join(t.TempDir(), "cfg.yaml")

	err := WriteConfig(testCfg{Name: "cars", Items: []string{"a", "b"}}, path, 0644)
	require.NoError(t, err)

	got := testCfg{}
	err = LoadConfig(&got, path)
	require.NoError(t, err)
	assert.Equal(t, testCfg{Name: "cars", Items: []string{"a", "b"}}, got)
}

func TestSampleConfig(t *testing.T) {

	path := filepath.Join(t.TempDir(), "cfg.yaml")

	err := SampleConfig([]byte("name: sample\n"), path, 0644)
	require.NoError(t, err)

	err = SampleConfig([]byte("name: other\n"), path, 0644)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: sample\n", string(data))
}

func TestLoadConfigMissing(t *testing.T) {

	err := LoadConfig(&testCfg{}, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestOpenLog(t *testing.T) {

	file := OpenLog(filepath.Join(t.TempDir(), "nodir", "x.log"), 0644)
	assert.Equal(t, io.Discard, file)

	path := filepath.Join(t.TempDir(), "x.log")
	file = OpenLog(path, 0644)
	_, err := io.WriteString(file, "hi\n")
	require.NoError(t, err)
	CloseLog(file)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestLoadConfigStrict(t *testing.T) {

	dir := t.TempDir()

	path := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: cars
itmes: [a]
"), 0644))
	err := LoadConfig(&testCfg{}, path)
	assert.ErrorContains(t, err, "failed to unmarshal")

	path = filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	got := testCfg{Name: "kept"}
	require.NoError(t, LoadConfig(&got, path))
	assert.Equal(t, testCfg{Name: "kept"}, got)
}

func TestWriteConfigReplaces(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	require.NoError(t, WriteConfig(testCfg{Name: "first"}, path, 0600))
	require.NoError(t, WriteConfig(testCfg{Name: "second"}, path, 0600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cfg.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got := testCfg{}
	require.NoError(t, LoadConfig(&got, path))
	assert.Equal(t, "second", got.Name)

	err = WriteConfig(testCfg{}, filepath.Join(dir, "nodir", "cfg.yaml"), 0644)
	assert.ErrorContains(t, err, "failed to create temp file")
}

func TestOpenLogEmptyPath(t *testing.T) {
	assert.Equal(t, io.Discard, OpenLog("", 0644))
}
