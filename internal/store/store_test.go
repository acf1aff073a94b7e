package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRoster() *member.Roster {
	return member.NewRoster([]*member.Member{
		{First: "Jane", Last: "Doe", Email: "jane@x", Dues: member.NewAmount(100), Kayak: member.Waived,
			Status: member.NewStatusSet(member.StatusRetiring, member.StatusBadEmail)},
		{First: "John", Last: "Roe", Town: "Bolinas", Dock: member.NewAmount(-25), EmailOnly: true,
			Status: member.NewStatusSet(member.StatusAttended2)},
	})
}

func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2024, time.June, 14, 9, 30, 0, 0, time.UTC)

	snap, err := s.Save(ctx, sampleRoster(), "Data/memlist.csv", now)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 2, snap.MemberCount)

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	r, err := s.Roster(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "Data/memlist.csv", r.Path)
	require.Len(t, r.Members, 2)
	for i, want := range sampleRoster().Members {
		assert.Equal(t, want.Values(), r.Members[i].Values())
		assert.Equal(t, want.EmailOnly, r.Members[i].EmailOnly)
	}
}

func TestList_KeepsEarlierSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	first, err := s.Save(ctx, sampleRoster(), "a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := s.Save(ctx, member.NewRoster(nil), "b", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, 0, list[1].MemberCount)

	require.NoError(t, s.Delete(ctx, first.ID))
	_, err = s.Roster(ctx, first.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, s.Delete(ctx, first.ID), ErrSnapshotNotFound)

	var orphans int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM members WHERE snapshot_id = ?`, first.ID).Scan(&orphans))
	assert.Zero(t, orphans, "members cascade with their snapshot")
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	snap, err := s.Save(ctx, sampleRoster(), "x", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	_, err = s.Get(ctx, snap.ID)
	assert.NoError(t, err)
}
