package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 300 * time.Millisecond

// datasetWatcher reloads the dictionary or catalog when its file changes on
// disk. The parent directory is watched so editors that save through a rename
// are still noticed.
type datasetWatcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	onChange func(path string, dictionary bool)

	mu     sync.Mutex
	files  map[bool]string
	dirs   map[string]int
	timers map[string]*time.Timer
	done   chan struct{}
	wg     sync.WaitGroup
}

func newDatasetWatcher(logger zerolog.Logger, onChange func(path string, dictionary bool)) (*datasetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &datasetWatcher{
		watcher:  w,
		logger:   logger,
		onChange: onChange,
		files:    make(map[bool]string),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	dw.wg.Add(1)
	go dw.run()
	return dw, nil
}

// Watch tracks path as the current dictionary or catalog file, replacing the
// file previously watched for that role.
func (dw *datasetWatcher) Watch(path string, dictionary bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.files[dictionary] == abs {
		return nil
	}
	dir := filepath.Dir(abs)
	if dw.dirs[dir] == 0 {
		if err := dw.watcher.Add(dir); err != nil {
			return err
		}
	}
	dw.dirs[dir]++
	if prev, ok := dw.files[dictionary]; ok {
		dw.release(filepath.Dir(prev))
	}
	dw.files[dictionary] = abs
	return nil
}

func (dw *datasetWatcher) release(dir string) {
	dw.dirs[dir]--
	if dw.dirs[dir] > 0 {
		return
	}
	delete(dw.dirs, dir)
	if err := dw.watcher.Remove(dir); err != nil {
		dw.logger.Debug().Err(err).Str("dir", dir).Msg("watch remove failed")
	}
}

func (dw *datasetWatcher) run() {
	defer dw.wg.Done()
	for {
		select {
		case <-dw.done:
			return
		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			dw.schedule(filepath.Clean(ev.Name))
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn().Err(err).Msg("ファイル監視エラー")
		}
	}
}

// schedule coalesces bursts of events for one file into a single reload.
func (dw *datasetWatcher) schedule(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	for dictionary, file := range dw.files {
		if file != path {
			continue
		}
		if t, ok := dw.timers[path]; ok {
			t.Reset(watchDebounce)
			return
		}
		dw.timers[path] = time.AfterFunc(watchDebounce, func() {
			dw.mu.Lock()
			delete(dw.timers, path)
			current := dw.files[dictionary]
			dw.mu.Unlock()
			if current != path {
				return
			}
			dw.logger.Info().Str("file", path).Msg("ファイルの変更を検知しました")
			dw.onChange(path, dictionary)
		})
		return
	}
}

// Close stops watching and waits for the event loop to exit.
func (dw *datasetWatcher) Close() error {
	close(dw.done)
	err := dw.watcher.Close()
	dw.wg.Wait()
	dw.mu.Lock()
	for path, t := range dw.timers {
		t.Stop()
		delete(dw.timers, path)
	}
	dw.mu.Unlock()
	return err
}
