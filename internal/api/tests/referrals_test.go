package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-ch/fitclub-server/internal/api/testutils"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

func inviteReferral(t *testing.T, tc *testutils.TestContext, token, name, email string) models.Referral {
	t.Helper()

	req := models.InviteRequest{Name: name, Email: email}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/referrals/invite", req, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code)

	var referral models.Referral
	ok, _ := testutils.DecodeEnvelope(t, w, &referral)
	require.True(t, ok)
	return referral
}

func advanceReferral(t *testing.T, tc *testutils.TestContext, token, id, status string) *httptest.ResponseRecorder {
	t.Helper()

	req := models.AdvanceReferralRequest{Status: status}
	path := fmt.Sprintf("/api/referrals/%s/advance", id)
	return testutils.PerformRequest(tc.Router, "POST", path, req, testutils.AuthHeaders(token))
}

func TestInviteAndListReferrals(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")
	assert.Equal(t, models.ReferralStatusInvited, referral.Status)
	assert.Equal(t, tc.MemberID, referral.ReferrerID)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/referrals", nil, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var list models.ReferralListData
	_, _ = testutils.DecodeEnvelope(t, w, &list)
	require.Len(t, list.Referrals, 1)
	assert.Equal(t, "jonas@example.com", list.Referrals[0].Email)
}

func TestInviteDuplicateOpenReferral(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	req := models.InviteRequest{Name: "Jonas Weber", Email: "jonas@example.com"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/referrals/invite", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusConflict, w.Code)

	_, apiErr := testutils.DecodeEnvelope(t, w, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeConflict, apiErr.Code)
}

func TestAdvanceReferralForward(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	w := advanceReferral(t, tc, tc.MemberJWT, referral.ID, models.ReferralStatusRegistered)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Referral
	ok, _ := testutils.DecodeEnvelope(t, w, &updated)
	require.True(t, ok)
	assert.Equal(t, models.ReferralStatusRegistered, updated.Status)

	// Registration pays the referrer the bonus.
	w2 := testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(tc.MemberJWT))
	var credits models.CreditsData
	_, _ = testutils.DecodeEnvelope(t, w2, &credits)
	assert.Equal(t, 5, credits.Balance)
	require.Len(t, credits.Ledger, 1)
	assert.Equal(t, "Referral bonus: Jonas Weber registered", credits.Ledger[0].Description)

	w = advanceReferral(t, tc, tc.MemberJWT, referral.ID, models.ReferralStatusAttended)
	require.Equal(t, http.StatusOK, w.Code)
	_, _ = testutils.DecodeEnvelope(t, w, &updated)
	assert.Equal(t, models.ReferralStatusAttended, updated.Status)

	// Attending pays nothing further.
	w2 = testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(tc.MemberJWT))
	_, _ = testutils.DecodeEnvelope(t, w2, &credits)
	assert.Equal(t, 5, credits.Balance)
}

func TestAdvanceReferralNeverMovesBackward(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	w := advanceReferral(t, tc, tc.MemberJWT, referral.ID, models.ReferralStatusRegistered)
	require.Equal(t, http.StatusOK, w.Code)

	// Backwards to invited is rejected.
	w = advanceReferral(t, tc, tc.MemberJWT, referral.ID, models.ReferralStatusInvited)
	require.Equal(t, http.StatusConflict, w.Code)

	_, apiErr := testutils.DecodeEnvelope(t, w, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeConflict, apiErr.Code)

	// The stored status is unchanged.
	w2 := testutils.PerformRequest(tc.Router, "GET", "/api/referrals", nil, testutils.AuthHeaders(tc.MemberJWT))
	var list models.ReferralListData
	_, _ = testutils.DecodeEnvelope(t, w2, &list)
	require.Len(t, list.Referrals, 1)
	assert.Equal(t, models.ReferralStatusRegistered, list.Referrals[0].Status)
}

func TestAdvanceReferralCannotSkipSteps(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	w := advanceReferral(t, tc, tc.MemberJWT, referral.ID, models.ReferralStatusAttended)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdvanceReferralUnknownStatus(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	w := advanceReferral(t, tc, tc.MemberJWT, referral.ID, "vip")
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, apiErr := testutils.DecodeEnvelope(t, w, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeValidation, apiErr.Code)
}

func TestAdvanceReferralOwnershipEnforced(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	referral := inviteReferral(t, tc, tc.MemberJWT, "Jonas Weber", "jonas@example.com")

	_, otherJWT := testutils.CreateTestMember(t, tc.Repository, "other@example.com", "Other Member", models.RoleMember)

	w := advanceReferral(t, tc, otherJWT, referral.ID, models.ReferralStatusRegistered)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
