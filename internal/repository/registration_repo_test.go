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

func TestRegistrationRepository_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	session := testutil.TestSession(t, db)

	require.NoError(t, repo.Create(context.Background(), &model.Registration{SessionID: session.ID, AthleteID: athlete.ID}))
	err := repo.Create(context.Background(), &model.Registration{SessionID: session.ID, AthleteID: athlete.ID})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegistrationRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	session := testutil.TestSession(t, db)
	testutil.TestRegistration(t, db, session.ID, athlete.ID, time.Now())

	deleted, err := repo.Delete(context.Background(), session.ID, athlete.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), session.ID, athlete.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRegistrationRepository_CountSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	since := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	testutil.TestRegistrations(t, db, athlete.ID, 2, since.Add(-time.Second))
	testutil.TestRegistrations(t, db, athlete.ID, 3, since)

	count, err := repo.CountSince(context.Background(), athlete.ID, since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRegistrationRepository_CountsForSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	busy := testutil.TestSession(t, db)
	empty := testutil.TestSession(t, db)

	for i := 0; i < 3; i++ {
		athlete := testutil.TestAthlete(t, db, guardian.ID)
		reg := testutil.TestRegistration(t, db, busy.ID, athlete.ID, time.Now())
		if i == 0 {
			_, err := repo.MarkCheckedIn(context.Background(), reg.ID, time.Now())
			require.NoError(t, err)
		}
	}

	counts, err := repo.CountsForSessions(context.Background(), []int64{busy.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, SessionCounts{Booked: 3, CheckedIn: 1}, counts[busy.ID])
	assert.Equal(t, SessionCounts{}, counts[empty.ID])
}

func TestRegistrationRepository_MarkCheckedIn_Once(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	session := testutil.TestSession(t, db)
	reg := testutil.TestRegistration(t, db, session.ID, athlete.ID, time.Now())

	first := time.Date(2026, time.March, 15, 17, 0, 0, 0, time.UTC)
	flipped, err := repo.MarkCheckedIn(context.Background(), reg.ID, first)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.MarkCheckedIn(context.Background(), reg.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, flipped)

	found, err := repo.Get(context.Background(), session.ID, athlete.ID)
	require.NoError(t, err)
	assert.True(t, found.CheckedIn)
	assert.True(t, found.CheckedInAt.Equal(first))
}

func TestRegistrationRepository_ListByAthlete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRegistrationRepository(db)
	guardian := testutil.TestUser(t, db)
	athlete := testutil.TestAthlete(t, db, guardian.ID)
	base := time.Date(2026, time.April, 1, 16, 0, 0, 0, time.UTC)
	later := testutil.TestSession(t, db, testutil.WithStartsAt(base.Add(24*time.Hour)))
	sooner := testutil.TestSession(t, db, testutil.WithStartsAt(base))
	testutil.TestRegistration(t, db, later.ID, athlete.ID, time.Now())
	testutil.TestRegistration(t, db, sooner.ID, athlete.ID, time.Now())

	regs, err := repo.ListByAthlete(context.Background(), athlete.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, sooner.ID, regs[0].SessionID)
	require.NotNil(t, regs[0].Session)
	assert.Equal(t, sooner.Title, regs[0].Session.Title)
}
