package docstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeSubscription delivers the names of documents whose primary file
// changed on disk, including edits made by other processes or by hand.
type ChangeSubscription struct {
	watcher *fsnotify.Watcher
	events  chan string
	stop    chan struct{}
	once    sync.Once
}

// SubscribeChanges registers a filesystem watcher over the data directory.
// Lock, backup and temp files are filtered out; only primary document
// replacements are reported.
func (s *Store) SubscribeChanges() (*ChangeSubscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("docstore: create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("docstore: watch directory %q: %w", s.dir, err)
	}
	sub := &ChangeSubscription{
		watcher: watcher,
		events:  make(chan string, 16),
		stop:    make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

// Events yields document names. The channel closes when the subscription does.
func (c *ChangeSubscription) Events() <-chan string {
	return c.events
}

// Close stops the watcher. Safe to call more than once.
func (c *ChangeSubscription) Close() error {
	c.once.Do(func() {
		close(c.stop)
		c.watcher.Close()
	})
	return nil
}

func (c *ChangeSubscription) run() {
	defer close(c.events)
	for {
		select {
		case <-c.stop:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			name, ok := documentNameFromPath(ev.Name)
			if !ok {
				continue
			}
			select {
			case c.events <- name:
			case <-c.stop:
				return
			}
		case <-c.watcher.Errors:
		}
	}
}

// documentNameFromPath maps a primary file path back to its document name.
func documentNameFromPath(path string) (string, bool) {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if !strings.HasSuffix(base, documentSuffix) {
		return "", false
	}
	name := strings.TrimSuffix(base, documentSuffix)
	if name == "" || strings.Contains(name, tempInfix) {
		return "", false
	}
	return name, true
}
