package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)

	file, err := NewSQLiteStore(filepath.Join(t.TempDir(), "detectors.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"sqlite-memory": sqlite,
		"sqlite-file":   file,
		"memory":        NewInMemoryStore(),
	}

	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})

	return stores
}

func identity(detectorType, addr string, seen time.Time) *models.Identity {
	return &models.Identity{
		DetectorType: detectorType,
		Address:      addr,
		Host:         addr,
		Addresses:    []string{addr},
		Port:         8000,
		Version:      "1.8.0",
		SeenAt:       seen,
	}
}

func TestStore_SaveAndList(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			dcu := identity("eiger", "10.0.0.2", now)
			dcu.Host = "dcu-01"
			dcu.Aliases = []string{"dcu-01.lab"}
			dcu.Metadata = map[string]string{"service": "x"}

			require.NoError(t, SaveAll(ctx, s, []*models.Identity{
				dcu,
				identity("eiger", "10.0.0.1", now),
				identity("simulator", "127.0.0.1", now),
			}))

			all, err := s.ListDetectors(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "10.0.0.1", all[0].Address)
			assert.Equal(t, "10.0.0.2", all[1].Address)
			assert.Equal(t, "simulator", all[2].DetectorType)

			assert.Equal(t, "dcu-01", all[1].Host)
			assert.Equal(t, []string{"dcu-01.lab"}, all[1].Aliases)
			assert.Equal(t, []string{"10.0.0.2"}, all[1].Addresses)
			assert.Equal(t, "x", all[1].Metadata["service"])
			assert.True(t, now.Equal(all[1].SeenAt))

			byType, err := s.ListDetectors(ctx, &models.DetectorFilter{DetectorType: "simulator"})
			require.NoError(t, err)
			require.Len(t, byType, 1)

			byHost, err := s.ListDetectors(ctx, &models.DetectorFilter{Host: "dcu-01"})
			require.NoError(t, err)
			require.Len(t, byHost, 1)
			assert.Equal(t, "10.0.0.2", byHost[0].Address)
		})
	}
}

func TestStore_UpsertKeepsOneRow(t *testing.T) {
	earlier := time.Now().Add(-time.Hour).Truncate(time.Second)
	later := earlier.Add(30 * time.Minute)

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.SaveDetector(ctx, identity("eiger", "10.0.0.1", earlier)))

			updated := identity("eiger", "10.0.0.1", later)
			updated.Version = "1.9.0"
			require.NoError(t, s.SaveDetector(ctx, updated))

			all, err := s.ListDetectors(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "1.9.0", all[0].Version)
			assert.True(t, later.Equal(all[0].SeenAt))

			recent, err := s.ListDetectors(ctx, &models.DetectorFilter{Since: later.Add(time.Minute)})
			require.NoError(t, err)
			assert.Empty(t, recent)
		})
	}
}

func TestStore_Prune(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.SaveDetector(ctx, identity("eiger", "10.0.0.1", time.Now().Add(-48*time.Hour))))
			require.NoError(t, s.SaveDetector(ctx, identity("eiger", "10.0.0.2", time.Now())))

			n, err := s.PruneDetectors(ctx, 24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			left, err := s.ListDetectors(ctx, nil)
			require.NoError(t, err)
			require.Len(t, left, 1)
			assert.Equal(t, "10.0.0.2", left[0].Address)
		})
	}
}

func TestStore_RejectsIncompleteIdentity(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SaveDetector(context.Background(), &models.Identity{Address: "10.0.0.1"})
			require.ErrorIs(t, err, errInvalidItem)

			err = s.SaveDetector(context.Background(), nil)
			require.ErrorIs(t, err, errInvalidItem)
		})
	}
}
