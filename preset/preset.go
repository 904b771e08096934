// Package preset keeps named filters in a yaml file.
package preset

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"

	nt "visdom/entity"
	"visdom/util"
)

// ErrNotFound is wrapped when no preset answers to a name.
var ErrNotFound = errors.New("preset not found")

// Preset is a named filter for a source.
type Preset struct {
	Name     string `yaml:"name"`
	Expr     string `yaml:"expr"`
	Advanced bool   `yaml:"advanced,omitempty"`
	Source   string `yaml:"source"`
}

// Same is true when pst and other hold the same filter, whatever their names.
func (pst Preset) Same(other Preset) bool {

	pst.Name, other.Name = "", ""
	return pst == other
}

// File is a preset store backed by path.
// It is not safe for concurrent use.
type File struct {
	path    string
	logger  nt.Logger
	presets []Preset
	current *Preset
}

// Load reads presets from path; a missing file makes for an empty store.
func Load(path string, lgr nt.Logger) (fl *File, err error) {

	fl = &File{path: path, logger: nt.OrNoop(lgr)}
	err = fl.Reload()
	return
}

// Reload rereads the file, keeping the current preset when it is still there.
func (fl *File) Reload() (err error) {

	var presets []Preset
	err = util.LoadConfig(&presets, fl.path)
	if errors.Is(err, os.ErrNotExist) {
		presets, err = nil, nil
	}
	if err != nil {
		return
	}

	fl.presets = presets
	fl.sort()

	if fl.current != nil {
		if _, ok := fl.Match(*fl.current); !ok {
			fl.current = nil
		}
	}
	return
}

// List returns the presets for source in name order, all of them when source is "".
func (fl *File) List(source string) (presets []Preset) {

	for _, pst := range fl.presets {
		if source == "" || pst.Source == source {
			presets = append(presets, pst)
		}
	}
	return
}

// Save adds pst, replacing any preset of the same name, and writes the file.
func (fl *File) Save(pst Preset) (replaced bool, err error) {

	if strings.TrimSpace(pst.Name) == "" {
		err = errors.Errorf("preset needs a name")
		return
	}

	idx := fl.index(pst.Name)
	if idx >= 0 {
		fl.presets[idx] = pst
		replaced = true
	} else {
		fl.presets = append(fl.presets, pst)
		fl.sort()
	}

	err = fl.write()
	if err != nil {
		return
	}

	fl.current = &pst
	fl.logger.Info(context.Background(), "saved preset", "name", pst.Name, "replaced", replaced)
	return
}

// Remove deletes the current preset and writes the file.
// A current preset saved under another name is found by its filter.
func (fl *File) Remove() (err error) {

	if fl.current == nil {
		err = errors.Errorf("no current preset to remove")
		return
	}

	idx := fl.index(fl.current.Name)
	if idx < 0 {
		idx = slices.IndexFunc(fl.presets, fl.current.Same)
	}
	if idx < 0 {
		err = errors.Wrapf(ErrNotFound, "no preset like %q", fl.current.Name)
		return
	}

	name := fl.presets[idx].Name
	fl.presets = slices.Delete(fl.presets, idx, idx+1)
	fl.current = nil

	err = fl.write()
	if err != nil {
		return
	}

	fl.logger.Info(context.Background(), "removed preset", "name", name)
	return
}

// Select makes the named preset current and returns it.
func (fl *File) Select(name string) (pst Preset, err error) {

	idx := fl.index(name)
	if idx < 0 {
		err = errors.Wrapf(ErrNotFound, "no preset named %q", name)
		return
	}

	pst = fl.presets[idx]
	fl.current = &pst
	return
}

// Current returns the current preset.
func (fl *File) Current() (pst Preset, ok bool) {

	if fl.current == nil {
		return
	}
	return *fl.current, true
}

// Remember makes the preset holding filter current, or clears current when there is none.
func (fl *File) Remember(filter Preset) (pst Preset, ok bool) {

	pst, ok = fl.Match(filter)
	if !ok {
		fl.current = nil
		return
	}

	fl.current = &pst
	return
}

// Match finds a preset holding the same filter.
func (fl *File) Match(filter Preset) (pst Preset, ok bool) {

	idx := slices.IndexFunc(fl.presets, filter.Same)
	if idx < 0 {
		return
	}
	return fl.presets[idx], true
}

// unexported

func (fl *File) index(name string) int {
	return slices.IndexFunc(fl.presets, func(pst Preset) bool { return pst.Name == name })
}

func (fl *File) sort() {

	slices.SortStableFunc(fl.presets, func(aa, bb Preset) int {
		return strings.Compare(aa.Name, bb.Name)
	})
}

func (fl *File) write() (err error) {

	err = util.WriteConfig(fl.presets, fl.path, 0644)
	err = errors.Wrapf(err, "failed to write presets")
	return
}
