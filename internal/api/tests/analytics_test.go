package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-ch/fitclub-server/internal/api/testutils"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

func TestAnalyticsAdminOnly(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	for _, path := range []string{
		"/api/analytics/overview",
		"/api/analytics/attendance",
		"/api/analytics/leaderboard",
	} {
		w := testutils.PerformRequest(tc.Router, "GET", path, nil, testutils.AuthHeaders(tc.MemberJWT))
		require.Equal(t, http.StatusForbidden, w.Code, "path %s", path)

		_, apiErr := testutils.DecodeEnvelope(t, w, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, models.CodeForbidden, apiErr.Code)

		w = testutils.PerformRequest(tc.Router, "GET", path, nil, testutils.AuthHeaders(tc.AdminJWT))
		assert.Equal(t, http.StatusOK, w.Code, "path %s", path)
	}
}

func TestAnalyticsOverview(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 10, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	gift := models.GiftCreditsRequest{RecipientEmail: "anna@example.com", Amount: 3}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", gift, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/analytics/overview", nil, testutils.AuthHeaders(tc.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var overview models.AnalyticsOverview
	ok, _ := testutils.DecodeEnvelope(t, w, &overview)
	require.True(t, ok)
	assert.Equal(t, 3, overview.Members)
	assert.Equal(t, 10, overview.CreditsTotal) // a gift moves credits, it does not create them
	assert.Equal(t, 1, overview.GiftsSent)
	assert.Equal(t, 0, overview.CheckIns)
}

func TestAnalyticsAttendanceAndLeaderboard(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	session := &models.ClassSession{
		Name:        "Morning HIIT",
		Trainer:     "Sarah Meier",
		StartsAt:    time.Now().UTC().Add(24 * time.Hour),
		Location:    "Studio 1",
		Capacity:    12,
		CreditCost:  1,
		CheckInCode: "sunrise7",
	}
	require.NoError(t, tc.Repository.CreateClassSession(ctx, session))

	annaID, _ := testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	for _, memberID := range []string{tc.MemberID, annaID} {
		_, _, err := tc.Repository.AddCredits(ctx, memberID, 2, models.LedgerSourceAdjustment, "Welcome credits")
		require.NoError(t, err)
		_, _, err = tc.Repository.BookClass(ctx, session.ID, memberID)
		require.NoError(t, err)
		_, err = tc.Repository.MarkAttendance(ctx, session.ID, memberID, time.Now().UTC())
		require.NoError(t, err)
	}

	w := testutils.PerformRequest(tc.Router, "GET", "/api/analytics/attendance", nil, testutils.AuthHeaders(tc.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var report []models.ClassAttendance
	ok, _ := testutils.DecodeEnvelope(t, w, &report)
	require.True(t, ok)
	require.Len(t, report, 1)
	assert.Equal(t, session.ID, report[0].ClassID)
	assert.Equal(t, 2, report[0].Attended)
	assert.Equal(t, 12, report[0].Capacity)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/analytics/leaderboard", nil, testutils.AuthHeaders(tc.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var rows []models.LeaderboardRow
	ok, _ = testutils.DecodeEnvelope(t, w, &rows)
	require.True(t, ok)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 1, row.CheckIns)
		assert.NotEmpty(t, row.Name)
	}
}
