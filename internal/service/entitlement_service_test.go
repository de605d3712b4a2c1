package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/testutil"
)

func TestEntitlementService_NoSubscription(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "")
	session := testutil.TestSession(t, env.db)

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, session)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.ErrorIs(t, result.Reason, ErrNoActiveSubscription)
}

func TestEntitlementService_PausedSubscriptionIsNotActive(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "")
	testutil.TestSubscription(t, env.db, athlete.ID, "elite", model.SubscriptionPaused)
	testutil.TestSubscription(t, env.db, athlete.ID, "elite", model.SubscriptionTrialing)

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, testutil.TestSession(t, env.db))
	require.NoError(t, err)
	assert.ErrorIs(t, result.Reason, ErrNoActiveSubscription)
}

func TestEntitlementService_UnknownPlan(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "legacy_gold")

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, testutil.TestSession(t, env.db))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.ErrorIs(t, result.Reason, ErrUnknownPlan)
}

func TestEntitlementService_PlanResolvedByPriceID(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "price_performance_monthly")

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, testutil.TestSession(t, env.db))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	require.NotNil(t, result.Plan)
	assert.Equal(t, "performance", result.Plan.ID)
	assert.Equal(t, 8, result.Limit)
}

func TestEntitlementService_Quota(t *testing.T) {
	tests := []struct {
		name    string
		used    int
		allowed bool
	}{
		{name: "below quota", used: 3, allowed: true},
		{name: "at quota", used: 4, allowed: false},
		{name: "over quota", used: 5, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			_, athlete := env.guardianWithAthlete(t, "foundation")
			testutil.TestRegistrations(t, env.db, athlete.ID, tt.used, testNow.Add(-time.Hour))

			result, err := env.entitlement.CheckEligibility(context.Background(), athlete, testutil.TestSession(t, env.db))
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, result.Allowed)
			assert.Equal(t, tt.used, result.Used)
			assert.Equal(t, 4, result.Limit)
			if !tt.allowed {
				assert.ErrorIs(t, result.Reason, ErrMonthlyQuotaExceeded)
			}
		})
	}
}

func TestEntitlementService_PreviousMonthNotCounted(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "foundation")

	monthStart := env.entitlement.MonthStart(testNow)
	testutil.TestRegistrations(t, env.db, athlete.ID, 4, monthStart.Add(-time.Second))
	testutil.TestRegistrations(t, env.db, athlete.ID, 1, monthStart)

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, testutil.TestSession(t, env.db))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Used)
}

func TestEntitlementService_MonthStartUsesConfiguredTimezone(t *testing.T) {
	env := setupEnv(t, func(cfg *config.Config) {
		cfg.Registration.Timezone = "America/New_York"
	})

	// 3月1日 03:00 UTC 在纽约仍是2月28日
	start := env.entitlement.MonthStart(time.Date(2026, time.March, 1, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.February, 1, 5, 0, 0, 0, time.UTC), start)

	start = env.entitlement.MonthStart(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 1, 5, 0, 0, 0, time.UTC), start)
}

func TestEntitlementService_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	env := setupEnv(t, func(cfg *config.Config) {
		cfg.Registration.Timezone = "Mars/Olympus_Mons"
	})

	start := env.entitlement.MonthStart(testNow)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestEntitlementService_AgeRange(t *testing.T) {
	tests := []struct {
		name    string
		dob     time.Time
		allowed bool
	}{
		{name: "age 11 above max", dob: testutil.BornYearsAgo(testNow, 11), allowed: false},
		{name: "age 10 at max", dob: testutil.BornYearsAgo(testNow, 10), allowed: true},
		{name: "age 6 at min", dob: testutil.BornYearsAgo(testNow, 6), allowed: true},
		{name: "age 5 below min", dob: testutil.BornYearsAgo(testNow, 5), allowed: false},
		{name: "turns 11 tomorrow", dob: time.Date(2015, time.March, 16, 0, 0, 0, 0, time.UTC), allowed: true},
		{name: "turns 11 today", dob: time.Date(2015, time.March, 15, 0, 0, 0, 0, time.UTC), allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			_, athlete := env.guardianWithAthlete(t, "elite", testutil.WithBirthDate(tt.dob))
			session := testutil.TestSession(t, env.db, testutil.WithAgeRange(6, 10))

			result, err := env.entitlement.CheckEligibility(context.Background(), athlete, session)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, result.Allowed)
			if !tt.allowed {
				assert.ErrorIs(t, result.Reason, ErrAgeOutOfRange)
			}
		})
	}
}

func TestEntitlementService_AgeSkippedWithoutBirthDate(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "elite")
	session := testutil.TestSession(t, env.db, testutil.WithAgeRange(6, 10))

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, session)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestEntitlementService_QuotaCheckedBeforeAge(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "foundation", testutil.WithBirthDate(testutil.BornYearsAgo(testNow, 14)))
	testutil.TestRegistrations(t, env.db, athlete.ID, 4, testNow)
	session := testutil.TestSession(t, env.db, testutil.WithAgeRange(6, 10))

	result, err := env.entitlement.CheckEligibility(context.Background(), athlete, session)
	require.NoError(t, err)
	assert.ErrorIs(t, result.Reason, ErrMonthlyQuotaExceeded)
}

func TestEntitlementService_UsageStats(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "elite")
	testutil.TestRegistrations(t, env.db, athlete.ID, 3, testNow)

	stats, err := env.entitlement.UsageStats(context.Background(), athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Used)
	assert.Equal(t, 12, stats.Limit)
	assert.Equal(t, "Elite", stats.PlanName)
}

func TestEntitlementService_UsageStats_NoSubscription(t *testing.T) {
	env := setupEnv(t)
	_, athlete := env.guardianWithAthlete(t, "")

	stats, err := env.entitlement.UsageStats(context.Background(), athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Used)
	assert.Equal(t, 0, stats.Limit)
	assert.Empty(t, stats.PlanName)
}
