// Package util reads and writes yaml config files and opens the log.
package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// OpenLog opens path for appending.
// An empty path discards; a path that cannot be opened discards with a warning on stderr.
func OpenLog(path string, mode os.FileMode) (file io.Writer) {

	if path == "" {
		return io.Discard
	}

	opened, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging nowhere: %s\n", err.Error())
		return io.Discard
	}
	return opened
}

// CloseLog closes a log opened with OpenLog.
func CloseLog(file io.Writer) {

	actually, ok := file.(*os.File)
	if ok {
		actually.Close()
	}
}

// LoadConfig decodes yaml at path into cfg.
// Keys cfg has no field for are an error; an empty file leaves cfg as is.
func LoadConfig(cfg any, path string) (err error) {

	file, err := os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read from %s", path)
		return
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	err = decoder.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	err = errors.Wrapf(err, "failed to unmarshal %s", path)
	return
}

// WriteConfig encodes cfg as yaml and swaps it in at path, so readers never see half a file.
func WriteConfig(cfg any, path string, mode os.FileMode) (err error) {

	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		err = errors.Wrapf(err, "failed to create temp file for %s", path)
		return
	}
	defer func() {
		if err != nil {
			os.Remove(temp.Name())
		}
	}()

	encoder := yaml.NewEncoder(temp)
	encoder.SetIndent(2)

	err = encoder.Encode(cfg)
	if err == nil {
		err = encoder.Close()
	}
	if err != nil {
		temp.Close()
		err = errors.Wrapf(err, "failed to marshal")
		return
	}

	err = temp.Close()
	if err != nil {
		err = errors.Wrapf(err, "failed to write to %s", temp.Name())
		return
	}

	err = os.Chmod(temp.Name(), mode)
	if err != nil {
		err = errors.Wrapf(err, "failed to set mode of %s", temp.Name())
		return
	}

	err = os.Rename(temp.Name(), path)
	err = errors.Wrapf(err, "failed to write to %s", path)
	return
}

// SampleConfig writes data to path unless something is already there.
func SampleConfig(data []byte, path string, mode os.FileMode) (err error) {

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to create %s", path)
		return
	}

	_, err = file.Write(data)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	err = errors.Wrapf(err, "failed to write to %s", path)
	return
}
