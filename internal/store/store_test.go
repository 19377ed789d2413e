package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-entropy-forensics/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(path string, score float64, at time.Time) *models.ScanResult {
	return &models.ScanResult{
		InputPath:   path,
		Kind:        models.MediaImage,
		Timestamp:   at,
		ElapsedSec:  0.42,
		Score:       score,
		DetectorTag: "heuristic-skin",
		Features: models.FeatureSet{
			Entropy: models.EntropyFeatures{HotspotFrac: 0.03, EdgeFlatRatio: 1.2},
		},
		Overlay: models.OverlayInfo{Path: path + ".overlay.png", ContourCount: 2, Coverage: 0.05},
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	id, err := s.Insert(sampleResult("/data/a.png", 4.2, at))
	require.NoError(t, err)
	require.Positive(t, id)

	rec, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "/data/a.png", rec.Result.InputPath)
	assert.Equal(t, 4.2, rec.Result.Score)
	assert.Equal(t, at, rec.ScannedAt)
	assert.Equal(t, 0.03, rec.Result.Features.Entropy.HotspotFrac)
	assert.Equal(t, 2, rec.Result.Overlay.ContourCount)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.Get(999)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ListRecent(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Insert(sampleResult("/data/clip.gif", float64(i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	records, err := s.ListRecent(3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, 4.0, records[0].Result.Score)
	assert.Equal(t, 3.0, records[1].Result.Score)
	assert.Equal(t, 2.0, records[2].Result.Score)
}

func TestStore_ListByInput(t *testing.T) {
	s := openTestStore(t)
	at := time.Now().UTC()
	_, err := s.Insert(sampleResult("/data/a.png", 1.0, at))
	require.NoError(t, err)
	_, err = s.Insert(sampleResult("/data/b.png", 2.0, at.Add(time.Second)))
	require.NoError(t, err)

	records, err := s.ListByInput("/data/b.png", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, records[0].Result.Score)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(sampleResult("/data/a.png", 7.5, time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
