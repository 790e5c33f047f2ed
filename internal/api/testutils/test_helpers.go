package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitclub-ch/fitclub-server/internal/api"
	"github.com/fitclub-ch/fitclub-server/internal/models"
	"github.com/fitclub-ch/fitclub-server/internal/repository"
	"github.com/fitclub-ch/fitclub-server/internal/service"
)

const testJWTSecret = "test-secret-key"

// NopNotifier drops all notifications
type NopNotifier struct{}

func (NopNotifier) NotifyGiftReceived(context.Context, *models.Member, int, string)        {}
func (NopNotifier) NotifyReferralRegistered(context.Context, *models.Member, string, int) {}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository *repository.MemoryRepository
	Service    service.Service
	JWTSecret  []byte

	MemberID  string
	MemberJWT string
	AdminID   string
	AdminJWT  string
}

// SetupTestContext wires the full HTTP stack against the in-memory
// repository, so tests need no database
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	repo := repository.NewMemoryRepository()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewDefaultService(repo, NopNotifier{}, log, service.Options{
		JWTSecret:            testJWTSecret,
		TokenTTL:             24 * time.Hour,
		ReferralBonusCredits: 5,
		PhotoGrantTTL:        24 * time.Hour,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})

	handler := api.NewHandler(svc)
	handler.SetupRoutes(router)

	memberID, memberJWT := CreateTestMember(t, repo, "member@example.com", "Test Member", models.RoleMember)
	adminID, adminJWT := CreateTestMember(t, repo, "admin@example.com", "Test Admin", models.RoleAdmin)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(testJWTSecret),
		MemberID:   memberID,
		MemberJWT:  memberJWT,
		AdminID:    adminID,
		AdminJWT:   adminJWT,
	}
}

// CreateTestMember inserts a member and returns its ID and a valid token
func CreateTestMember(t *testing.T, repo repository.Repository, email, name, role string) (string, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	member := &models.Member{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
		Role:     role,
	}

	err = repo.CreateMember(context.Background(), member)
	require.NoError(t, err, "Failed to create test member")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  member.ID,
		"role": member.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return member.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeEnvelope unpacks the uniform response wrapper, unmarshalling the
// data payload into out when out is non-nil
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, out interface{}) (bool, *models.APIError) {
	t.Helper()

	var env struct {
		OK    bool             `json:"ok"`
		Data  json.RawMessage  `json:"data"`
		Error *models.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}

	return env.OK, env.Error
}
