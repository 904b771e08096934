package visdom

import (
	"github.com/pkg/errors"

	nt "visdom/entity"
	"visdom/util"
)

// Layout is the dashboard's config file.
type Layout struct {
	Dashboard  Config      `yaml:"dashboard"`
	Sources    []nt.Source `yaml:"sources"`
	PresetFile string      `yaml:"preset_file,omitempty"`
	LogPath    string      `yaml:"log_path,omitempty"`
	// Truncate limits the length of logged values.
	Truncate int `yaml:"truncate,omitempty"`
}

// Loader loads a source into a provider.
type Loader interface {
	Load(src nt.Source) (err error)
}

// SampleLayout is written out when no config file is found.
var SampleLayout = []byte(`dashboard:
  version: 2
  template: "{source}/{chart}?"
  debounce: 500ms
  filter:
    debounce: 200ms
  default:
    chart: histogram
sources:
  - name: cars
    label: Cars
    path: data/cars.csv
preset_file: presets.yaml
log_path: visdom.log
truncate: 999
`)

// LoadLayout reads a layout from path.
func LoadLayout(path string) (layout *Layout, err error) {

	layout = &Layout{}
	err = util.LoadConfig(layout, path)
	if err != nil {
		return
	}

	if len(layout.Sources) == 0 {
		err = errors.Errorf("no sources in %s", path)
	}
	return
}

// Load loads each source into loader.
func (layout *Layout) Load(loader Loader) (err error) {

	for _, src := range layout.Sources {
		err = loader.Load(src)
		if err != nil {
			err = errors.Wrapf(err, "failed to load source %q", src.Name)
			return
		}
	}
	return
}
