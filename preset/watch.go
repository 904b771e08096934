package preset

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"visdom/serial"
)

// Watch reloads the presets whenever the file changes on disk, then calls fn.
// Reloads run on exec; watching stops when ctx is done.
func (fl *File) Watch(ctx context.Context, exec serial.Executor, fn func()) (err error) {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		err = errors.Wrapf(err, "failed to create file watcher")
		return
	}

	// editors often replace rather than write, so watch the directory
	err = watcher.Add(filepath.Dir(fl.path))
	if err != nil {
		watcher.Close()
		err = errors.Wrapf(err, "failed to watch %s", fl.path)
		return
	}

	target := filepath.Clean(fl.path)
	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target || evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				exec.Post(func() {
					err := fl.Reload()
					if err != nil {
						fl.logger.Error(ctx, "failed to reload presets", err, "path", fl.path)
						return
					}
					fn()
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fl.logger.Error(ctx, "preset watcher error", err)
			}
		}
	}()

	return
}
