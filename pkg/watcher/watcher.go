package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// ReloadFunc receives a transcript that changed on disk
type ReloadFunc func(path string, doc *transcript.Document)

// Config configures a TranscriptWatcher
type Config struct {
	// Quiet period after the last change event before the file is reloaded
	StabilityWait time.Duration
}

type watchedFile struct {
	fn    ReloadFunc
	hash  string
	timer *time.Timer
}

// TranscriptWatcher reloads registered transcript files when another program
// rewrites them. Writes made through MarkWritten are recognised by content
// hash and do not trigger a reload.
type TranscriptWatcher struct {
	config  Config
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]*watchedFile
	dirs  map[string]int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a transcript watcher
func New(config Config) (*TranscriptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if config.StabilityWait <= 0 {
		config.StabilityWait = 100 * time.Millisecond
	}

	return &TranscriptWatcher{
		config:  config,
		watcher: w,
		files:   make(map[string]*watchedFile),
		dirs:    make(map[string]int),
		stopCh:  make(chan struct{}),
	}, nil
}

// Watch registers fn to be called whenever path changes. The file's directory
// is watched so that atomic replacements are observed.
func (tw *TranscriptWatcher) Watch(path string, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	hash, _ := transcript.Hash(abs)

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if f, ok := tw.files[abs]; ok {
		f.fn = fn
		f.hash = hash
		return nil
	}

	dir := filepath.Dir(abs)
	if tw.dirs[dir] == 0 {
		if err := tw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	tw.dirs[dir]++
	tw.files[abs] = &watchedFile{fn: fn, hash: hash}

	logger.WithComponent("watcher").Debug().Str("file", abs).Msg("Watching transcript")
	return nil
}

// Unwatch stops watching path
func (tw *TranscriptWatcher) Unwatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	f, ok := tw.files[abs]
	if !ok {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	delete(tw.files, abs)

	dir := filepath.Dir(abs)
	tw.dirs[dir]--
	if tw.dirs[dir] <= 0 {
		delete(tw.dirs, dir)
		_ = tw.watcher.Remove(dir)
	}
}

// MarkWritten records the current content of path as known, so that the
// change events caused by our own write are ignored
func (tw *TranscriptWatcher) MarkWritten(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	hash, err := transcript.Hash(abs)
	if err != nil {
		return
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()
	if f, ok := tw.files[abs]; ok {
		f.hash = hash
	}
}

// Start begins processing file system events until ctx is done or Stop is called
func (tw *TranscriptWatcher) Start(ctx context.Context) {
	tw.wg.Add(1)
	go tw.watchLoop(ctx)

	logger.WithComponent("watcher").Info().
		Dur("stability_wait", tw.config.StabilityWait).
		Msg("Transcript watcher started")
}

// Stop shuts the watcher down and waits for the event loop to exit
func (tw *TranscriptWatcher) Stop() error {
	var err error
	tw.stopOnce.Do(func() {
		close(tw.stopCh)
		err = tw.watcher.Close()
		tw.wg.Wait()

		tw.mu.Lock()
		for _, f := range tw.files {
			if f.timer != nil {
				f.timer.Stop()
			}
		}
		tw.mu.Unlock()

		logger.WithComponent("watcher").Info().Msg("Transcript watcher stopped")
	})
	return err
}

func (tw *TranscriptWatcher) watchLoop(ctx context.Context) {
	defer tw.wg.Done()
	log := logger.WithComponent("watcher")

	for {
		select {
		case <-ctx.Done():
			return
		case <-tw.stopCh:
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			tw.handleFileEvent(event)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (tw *TranscriptWatcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)

	tw.mu.Lock()
	defer tw.mu.Unlock()

	f, ok := tw.files[path]
	if !ok {
		return
	}
	// every new event restarts the quiet period
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(tw.config.StabilityWait, func() { tw.reload(path) })
}

func (tw *TranscriptWatcher) reload(path string) {
	select {
	case <-tw.stopCh:
		return
	default:
	}
	log := logger.WithComponent("watcher").WithField("file", path)

	if _, err := os.Stat(path); err != nil {
		log.Debug().Msg("Transcript disappeared before reload")
		return
	}
	hash, err := transcript.Hash(path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to hash transcript")
		return
	}

	tw.mu.Lock()
	f, ok := tw.files[path]
	if !ok || f.hash == hash {
		tw.mu.Unlock()
		if ok {
			log.Debug().Msg("Transcript content unchanged, skipping reload")
		}
		return
	}
	f.hash = hash
	fn := f.fn
	tw.mu.Unlock()

	doc, err := transcript.Load(path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to reload transcript")
		return
	}

	log.Info().Int("segments", len(doc.Segments)).Msg("Transcript changed on disk")
	if fn != nil {
		fn(path, doc)
	}
}
