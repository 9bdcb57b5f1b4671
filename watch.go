// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package favicon

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchReadyHook func() // used in tests, called when Watch started watching

// debouncer delays execution of a function until a specified duration
// has passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

// newDebouncer creates a new debouncer.
func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}

// Watch generates the icon set once, then watches the source image
// (and the pinned SVG, if any) for changes and regenerates it until ctx
// is canceled. Generation failures are logged, not fatal.
func Watch(ctx context.Context, c *Config) error {
	c.setDefaults()

	c.Logf("performing an initial generation")
	if err := Generate(c); err != nil {
		c.Logf("initial generation failed: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// fsnotify delivers more reliable events for directories, so watch
	// the parent directories and filter events down to our files.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, file := range []string{c.Source, c.PinnedSVG} {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	regenerate := func() {
		c.Logf("regenerating icons")
		if err := Generate(c); err != nil {
			c.Logf("failed to regenerate icons: %v", err)
		}
	}
	// It's better to have a bit of delay, so that we don't regenerate
	// the icons on each keystroke.
	debouncer := newDebouncer(250*time.Millisecond, regenerate)

	c.Logf("started watching for new changes")
	if watchReadyHook != nil {
		watchReadyHook()
	}

	for {
		select {
		case event := <-watcher.Events:
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if !shouldRegenerate(event.Name, event.Op) {
				continue
			}
			c.Logf("detected change in %s, scheduling generation", event.Name)
			debouncer.Do()
		case err := <-watcher.Errors:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

// Copied from
// https://github.com/brandur/modulir/blob/1ff912fdc45a79cb4d8d9f199d213ae9c3598cbd/watch.go#L201.
func shouldRegenerate(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to see whether it can write into a
	// target directory. It screws up our watching algorithm, so ignore
	// it.
	if base == "4913" {
		return false
	}

	// A special case, but ignore creates on files that look like Vim
	// backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	if op&fsnotify.Create != 0 {
		return true
	}

	if op&fsnotify.Remove != 0 {
		return true
	}

	if op&fsnotify.Write != 0 {
		return true
	}

	/*
		Ignore everything else. Rationale:

		* chmod: we don't really care about these as they won't affect
		generated output (unless potentially we no longer can read the
		file, but we'll go down that path if it ever becomes a problem).

		* rename: will produce a following create event as well, so just
		listen for that instead.
	*/
	return false
}
