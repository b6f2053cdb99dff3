package index

import (
	"swotdb/util"
	"testing"
	"time"
)

func TestReloadingIndex_reload(t *testing.T) {
	// Arrange
	spatialIndex, opener, dir := newTestSpatialIndex(t, Options{TileSize: 10})
	paths := createDataFiles(t, dir, "a.nc", "b.nc")
	opener.Add(paths[0], newTestSwath(20, 3, 0, 10))
	opener.Add(paths[1], newTestSwath(10, 3, 0, 10))
	_, err := spatialIndex.AddFile(paths[0], 0)
	util.AssertNil(t, err)
	util.AssertNil(t, spatialIndex.Save())

	reloadingIndex, err := NewReloadingIndex(spatialIndex.indexFile, opener)
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, reloadingIndex.Stats().TileCount)

	_, err = spatialIndex.AddFile(paths[1], 0)
	util.AssertNil(t, err)
	util.AssertNil(t, spatialIndex.Save())

	// Act
	err = reloadingIndex.Reload()

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 3, reloadingIndex.Stats().TileCount)
	util.AssertEqual(t, 3, len(reloadingIndex.Query(NewBound(-90, 90, -180, 180), nil, nil)))
}

func TestReloadingIndex_missingSnapshot(t *testing.T) {
	// Arrange
	spatialIndex, opener, _ := newTestSpatialIndex(t, Options{})

	// Act
	_, err := NewReloadingIndex(spatialIndex.indexFile, opener)

	// Assert
	util.AssertErrorIs(t, ErrNotFound, err)
}

func TestReloadingIndex_watchReloadsSavedSnapshot(t *testing.T) {
	// Arrange
	spatialIndex, opener, dir := newTestSpatialIndex(t, Options{TileSize: 10})
	paths := createDataFiles(t, dir, "a.nc", "b.nc")
	opener.Add(paths[0], newTestSwath(10, 3, 0, 10))
	opener.Add(paths[1], newTestSwath(10, 3, 0, 10))
	_, err := spatialIndex.AddFile(paths[0], 0)
	util.AssertNil(t, err)
	util.AssertNil(t, spatialIndex.Save())

	reloadingIndex, err := NewReloadingIndex(spatialIndex.indexFile, opener)
	util.AssertNil(t, err)
	util.AssertNil(t, reloadingIndex.Watch())
	defer reloadingIndex.Close()

	// Act
	_, err = spatialIndex.AddFile(paths[1], 0)
	util.AssertNil(t, err)
	util.AssertNil(t, spatialIndex.Save())

	// Assert
	deadline := time.Now().Add(5 * time.Second)
	for reloadingIndex.Stats().FileCount != 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	util.AssertEqual(t, 2, reloadingIndex.Stats().FileCount)
}
