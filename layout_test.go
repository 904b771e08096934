package visdom

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nt "visdom/entity"
)

type fakeLoader struct {
	loaded []string
	fail   string
}

func (fl *fakeLoader) Load(src nt.Source) error {

	if src.Name == fl.fail {
		return errors.New("boom")
	}
	fl.loaded = append(fl.loaded, src.Name)
	return nil
}

func TestLoadLayout(t *testing.T) {

	path := filepath.Join(t.TempDir(), "visdom.yaml")
	require.NoError(t, os.WriteFile(path, SampleLayout, 0644))

	layout, err := LoadLayout(path)
	require.NoError(t, err)

	assert.Equal(t, 2, layout.Dashboard.Version)
	assert.Equal(t, 500*time.Millisecond, layout.Dashboard.Debounce)
	assert.Equal(t, 200*time.Millisecond, layout.Dashboard.Filter.Debounce)
	assert.Equal(t, "histogram", layout.Dashboard.Default["chart"])
	assert.Equal(t, []nt.Source{{Name: "cars", Label: "Cars", Path: "data/cars.csv"}}, layout.Sources)
	assert.Equal(t, 999, layout.Truncate)

	loader := &fakeLoader{}
	require.NoError(t, layout.Load(loader))
	assert.Equal(t, []string{"cars"}, loader.loaded)

	loader.fail = "cars"
	assert.ErrorContains(t, layout.Load(loader), `failed to load source "cars"`)
}

func TestLoadLayoutNoSources(t *testing.T) {

	path := filepath.Join(t.TempDir(), "visdom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  version: 1\n"), 0644))

	_, err := LoadLayout(path)
	assert.ErrorContains(t, err, "no sources")
}
