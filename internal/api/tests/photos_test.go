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

func seedPhotos(t *testing.T, tc *testutils.TestContext) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	photos := []*models.Photo{
		{
			URL: "/photos/hiit-group.jpg", ClassName: "Morning HIIT", Trainer: "Sarah Meier",
			TakenAt: now.Add(-72 * time.Hour), IsPublic: true,
		},
		{
			URL: "/photos/yoga-session.jpg", ClassName: "Power Yoga", Trainer: "Luca Romano",
			TakenAt: now.Add(-48 * time.Hour), IsPublic: false, AccessCode: "Summer24",
		},
		{
			URL: "/photos/yoga-closing.jpg", ClassName: "Power Yoga", Trainer: "Luca Romano",
			TakenAt: now.Add(-47 * time.Hour), IsPublic: false, AccessCode: "Summer24",
		},
	}
	for _, p := range photos {
		require.NoError(t, tc.Repository.CreatePhoto(ctx, p))
	}
}

func listPhotos(t *testing.T, tc *testutils.TestContext, token string) models.PhotoListData {
	t.Helper()

	w := testutils.PerformRequest(tc.Router, "GET", "/api/photos", nil, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusOK, w.Code)

	// The access code must never be serialized.
	assert.NotContains(t, w.Body.String(), "Summer24")
	assert.NotContains(t, w.Body.String(), "accessCode")

	var list models.PhotoListData
	_, _ = testutils.DecodeEnvelope(t, w, &list)
	return list
}

func TestPhotosDefaultToPublicOnly(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	seedPhotos(t, tc)

	list := listPhotos(t, tc, tc.MemberJWT)
	require.Len(t, list.Photos, 1)
	assert.True(t, list.Photos[0].IsPublic)
}

func TestRedeemPhotoCode(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	seedPhotos(t, tc)

	// The match is case-insensitive.
	req := models.PhotoAccessRequest{Code: "SUMMER24"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/photos/access", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var data models.PhotoAccessData
	ok, _ := testutils.DecodeEnvelope(t, w, &data)
	require.True(t, ok)
	assert.Equal(t, 2, data.Unlocked)

	list := listPhotos(t, tc, tc.MemberJWT)
	assert.Len(t, list.Photos, 3)

	// The grant is per member.
	_, otherJWT := testutils.CreateTestMember(t, tc.Repository, "other@example.com", "Other Member", models.RoleMember)
	otherList := listPhotos(t, tc, otherJWT)
	assert.Len(t, otherList.Photos, 1)
}

func TestRedeemPhotoCodeNoMatch(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	seedPhotos(t, tc)

	req := models.PhotoAccessRequest{Code: "winter25"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/photos/access", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusNotFound, w.Code)

	_, apiErr := testutils.DecodeEnvelope(t, w, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeNotFound, apiErr.Code)

	// A miss grants nothing.
	list := listPhotos(t, tc, tc.MemberJWT)
	assert.Len(t, list.Photos, 1)
}

func TestExpiredGrantHidesPhotos(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	seedPhotos(t, tc)

	grant := &models.PhotoAccessGrant{
		MemberID:   tc.MemberID,
		AccessCode: "summer24",
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, tc.Repository.GrantPhotoAccess(context.Background(), grant))

	list := listPhotos(t, tc, tc.MemberJWT)
	assert.Len(t, list.Photos, 1)
}
