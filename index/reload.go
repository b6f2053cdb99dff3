package index

import (
	"github.com/fsnotify/fsnotify"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"path/filepath"
	"swotdb/swath"
	"sync"
	"sync/atomic"
	"time"
)

// ReloadingIndex serves queries from the latest snapshot of an index. The loaded index is swapped atomically, so
// queries keep using the previous index until the new one is completely loaded. It's meant for read-only use, e.g. by
// a server while the index is rebuilt by another process.
type ReloadingIndex struct {
	current   atomic.Pointer[SpatialIndex]
	indexFile string
	opener    swath.Opener

	mutex     sync.Mutex
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

func NewReloadingIndex(indexFile string, opener swath.Opener) (*ReloadingIndex, error) {
	r := &ReloadingIndex{
		indexFile: indexFile,
		opener:    opener,
	}

	err := r.Reload()
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Reload loads the snapshot. On error, the previously loaded index stays in use.
func (r *ReloadingIndex) Reload() error {
	reloadStartTime := time.Now()

	spatialIndex, err := LoadSpatialIndex(r.indexFile, r.opener, Options{AutosaveInterval: AutosaveDisabled})
	if err != nil {
		return err
	}

	r.current.Store(spatialIndex)
	sigolo.Infof("Reloaded index %s in %s", spatialIndex.SnapshotPath(), time.Since(reloadStartTime))
	return nil
}

func (r *ReloadingIndex) Current() *SpatialIndex {
	return r.current.Load()
}

func (r *ReloadingIndex) Query(bound orb.Bound, timeStart *time.Time, timeEnd *time.Time) []TileHit {
	return r.Current().Query(bound, timeStart, timeEnd)
}

func (r *ReloadingIndex) Stats() Stats {
	return r.Current().Stats()
}

// Watch reloads the index whenever its snapshot file gets replaced. The directory is watched instead of the file,
// because saving replaces the snapshot file by renaming a temporary file. Calling Watch again replaces the previous
// watch.
func (r *ReloadingIndex) Watch() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.stopWatchLocked()

	snapshotPath, err := filepath.Abs(SnapshotPath(r.indexFile))
	if err != nil {
		return errors.Wrapf(err, "Unable to determine absolute path of %s", SnapshotPath(r.indexFile))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "Unable to create file watcher")
	}
	err = watcher.Add(filepath.Dir(snapshotPath))
	if err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "Unable to watch directory of %s", snapshotPath)
	}

	r.watcher = watcher
	r.watchDone = make(chan struct{})

	sigolo.Infof("Watching %s for changes", snapshotPath)
	go r.watchLoop(watcher, snapshotPath, r.watchDone)
	return nil
}

func (r *ReloadingIndex) watchLoop(watcher *fsnotify.Watcher, snapshotPath string, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != snapshotPath || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}

			sigolo.Debugf("Snapshot changed: %s", event.String())
			err := r.Reload()
			if err != nil {
				sigolo.Errorf("Unable to reload index, keep using the previous one: %+v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			sigolo.Errorf("Error watching snapshot %s: %+v", snapshotPath, err)
		}
	}
}

// Close stops watching the snapshot file.
func (r *ReloadingIndex) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.stopWatchLocked()
}

func (r *ReloadingIndex) stopWatchLocked() error {
	if r.watcher == nil {
		return nil
	}

	err := r.watcher.Close()
	<-r.watchDone
	r.watcher = nil
	r.watchDone = nil
	return err
}
