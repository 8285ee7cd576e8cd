package calibstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.Context(), filepath.Join(t.TempDir(), "calibration.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestLatestEmpty(t *testing.T) {
	t.Parallel()

	_, err := tempStore(t).Latest(t.Context())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndLatest(t *testing.T) {
	t.Parallel()

	s := tempStore(t)
	ctx := t.Context()

	first, err := s.Save(ctx, Record{R0: 1200, Precision: 0.8, Samples: 200, TableFingerprint: 0xdeadbeefcafef00d})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	when := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	second, err := s.Save(ctx, Record{ID: "fixed", R0: 1300, Precision: 0.5, Samples: 150, CreatedAt: when})
	require.NoError(t, err)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, latest)
	assert.Equal(t, when, latest.CreatedAt)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fixed", all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, uint64(0xdeadbeefcafef00d), all[1].TableFingerprint)
	assert.InDelta(t, 1200.0, all[1].R0, 0)
}

func TestDuplicateIDRejected(t *testing.T) {
	t.Parallel()

	s := tempStore(t)

	_, err := s.Save(t.Context(), Record{ID: "same", R0: 1000})
	require.NoError(t, err)

	_, err = s.Save(t.Context(), Record{ID: "same", R0: 1001})
	require.Error(t, err)
}

func TestClear(t *testing.T) {
	t.Parallel()

	s := tempStore(t)
	ctx := t.Context()

	for range 3 {
		_, err := s.Save(ctx, Record{R0: 900, Precision: 0.9, Samples: 10})
		require.NoError(t, err)
	}

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = s.Latest(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "calibration.db")

	s, err := Open(t.Context(), path)
	require.NoError(t, err)

	saved, err := s.Save(t.Context(), Record{R0: 777, Precision: 0.4, Samples: 200})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(t.Context(), path)
	require.NoError(t, err)

	defer reopened.Close()

	latest, err := reopened.Latest(t.Context())
	require.NoError(t, err)
	assert.Equal(t, saved.ID, latest.ID)
}
