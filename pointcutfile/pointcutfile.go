// Package pointcutfile keeps a pointcut.Registry in sync with a
// directory of "*.pointcut" text files on disk, so an operator can
// tune a named pointcut expression without restarting the weaver. The
// registry itself (§4.3 "Registry") has no file-system knowledge; this
// is pure ambient convenience layered on top of it, grounded in the
// same fsnotify-based watch-and-react pattern the teacher uses to
// notice removal of its own job-server URL file.
package pointcutfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/aspectrt/aspectrt/internal/log"
	"github.com/aspectrt/aspectrt/pointcut"
)

const extension = ".pointcut"

// Watcher mirrors one directory's *.pointcut files into a
// pointcut.Registry: one file's basename (minus the extension) names
// the pointcut, and its contents are the expression text.
type Watcher struct {
	dir      string
	registry *pointcut.Registry
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// Watch starts watching dir and loads every existing *.pointcut file
// into registry before returning. The caller must call Close to stop
// watching and release the underlying inotify/ReadDirectoryChanges
// handle.
func Watch(dir string, registry *pointcut.Registry) (*Watcher, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pointcutfile: read dir %q: %w", dir, err)
	}

	w := &Watcher{dir: dir, registry: registry, done: make(chan struct{})}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		if err := w.load(filepath.Join(dir, e.Name())); err != nil {
			log.Warnf("pointcutfile: loading %s: %v", e.Name(), err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pointcutfile: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("pointcutfile: watch %q: %w", dir, err)
	}
	w.watcher = fsw

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("pointcutfile: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, extension) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		name := pointcutName(event.Name)
		w.registry.Delete(name)
		log.Infof("pointcutfile: removed pointcut %q (file %s gone)", name, event.Name)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		if err := w.load(event.Name); err != nil {
			log.Warnf("pointcutfile: reloading %s: %v", event.Name, err)
		}
	}
}

func (w *Watcher) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := pointcutName(path)
	text := strings.TrimSpace(string(data))
	expr, err := pointcut.Parse(text, w.registry)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", text, err)
	}

	w.registry.Set(name, expr)
	log.Infof("pointcutfile: loaded pointcut %q from %s", name, path)
	return nil
}

// Close stops watching the directory. The registry retains whatever
// was last loaded.
func (w *Watcher) Close() error {
	close(w.done)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func pointcutName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, extension)
}
