package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/testutil"
)

func TestSessionRepository_List_OrderAndWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSessionRepository(db)
	base := time.Date(2026, time.April, 1, 16, 0, 0, 0, time.UTC)
	third := testutil.TestSession(t, db, testutil.WithStartsAt(base.Add(48*time.Hour)))
	first := testutil.TestSession(t, db, testutil.WithStartsAt(base))
	second := testutil.TestSession(t, db, testutil.WithStartsAt(base.Add(24*time.Hour)))

	sessions, err := repo.List(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{sessions[0].ID, sessions[1].ID, sessions[2].ID})

	sessions, err = repo.List(context.Background(), base.Add(time.Hour), base.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].ID)
}

func TestSessionRepository_Delete_CascadesRegistrations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSessionRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	session := testutil.TestSession(t, db)
	kept := testutil.TestSession(t, db)
	testutil.TestRegistration(t, db, session.ID, athlete.ID, time.Now())
	testutil.TestRegistration(t, db, kept.ID, athlete.ID, time.Now())

	deleted, err := repo.Delete(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var remaining int64
	require.NoError(t, db.Model(&model.Registration{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	deleted, err = repo.Delete(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
