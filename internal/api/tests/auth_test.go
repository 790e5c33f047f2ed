package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-ch/fitclub-server/internal/api/testutils"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

func TestSignUpAndLogin(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	signup := models.SignUpRequest{
		Email:    "new@example.com",
		Password: "strongpassword",
		Name:     "New Member",
	}

	w := testutils.PerformRequest(tc.Router, "POST", "/api/auth/signup", signup, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var auth models.AuthData
	ok, apiErr := testutils.DecodeEnvelope(t, w, &auth)
	require.True(t, ok)
	require.Nil(t, apiErr)
	assert.NotEmpty(t, auth.MemberID)
	assert.Equal(t, "new@example.com", auth.Email)
	assert.Equal(t, models.RoleMember, auth.Role)

	login := models.LoginRequest{Email: "new@example.com", Password: "strongpassword"}
	w = testutils.PerformRequest(tc.Router, "POST", "/api/auth/login", login, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loggedIn models.AuthData
	ok, _ = testutils.DecodeEnvelope(t, w, &loggedIn)
	require.True(t, ok)
	assert.NotEmpty(t, loggedIn.Token)
	assert.Equal(t, auth.MemberID, loggedIn.MemberID)

	// The token must actually open protected routes.
	w = testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(loggedIn.Token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	signup := models.SignUpRequest{
		Email:    "member@example.com", // already seeded by SetupTestContext
		Password: "strongpassword",
		Name:     "Impostor",
	}

	w := testutils.PerformRequest(tc.Router, "POST", "/api/auth/signup", signup, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	ok, apiErr := testutils.DecodeEnvelope(t, w, nil)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeConflict, apiErr.Code)
}

func TestSignUpDuplicateEmailIgnoresCase(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	signup := models.SignUpRequest{
		Email:    "Member@Example.COM",
		Password: "strongpassword",
		Name:     "Impostor",
	}

	w := testutils.PerformRequest(tc.Router, "POST", "/api/auth/signup", signup, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	_, apiErr := testutils.DecodeEnvelope(t, w, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeConflict, apiErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	login := models.LoginRequest{Email: "member@example.com", Password: "not-the-password"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/auth/login", login, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	ok, apiErr := testutils.DecodeEnvelope(t, w, nil)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeUnauthorized, apiErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	login := models.LoginRequest{Email: "nobody@example.com", Password: "whatever1"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/auth/login", login, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	for _, path := range []string{"/api/credits", "/api/referrals", "/api/classes", "/api/photos"} {
		w := testutils.PerformRequest(tc.Router, "GET", path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
	}
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
