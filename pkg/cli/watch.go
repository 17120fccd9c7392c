package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pylift/pylift/internal/config"
)

// debounce window for editors that write files in several events.
const settleDelay = 100 * time.Millisecond

// watch re-runs the translation whenever one of the input files (or any
// sibling source file in a watched directory) changes. It blocks until the
// watcher fails.
func watch(opts *Options, cfg *config.Config, p printer) int {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer w.Close()

	wanted := make(map[string]bool, len(opts.Files))
	dirs := make(map[string]bool)
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// watch directories, not files: most editors replace the file on
	// save, which drops a file-level watch
	for d := range dirs {
		if err := w.Add(d); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	runOnce(opts, cfg, p)
	fmt.Fprintln(os.Stderr, "watching for changes...")

	var timer *time.Timer
	pending := make(map[string]bool)
	fire := make(chan struct{}, 1)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return 0
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !wanted[abs] {
				continue
			}
			pending[abs] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(settleDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
				delete(pending, f)
			}
			changed := &Options{
				Check:   opts.Check,
				NoColor: opts.NoColor,
				OutDir:  opts.OutDir,
				Files:   files,
			}
			runOnce(changed, cfg, p)
		case err, ok := <-w.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
