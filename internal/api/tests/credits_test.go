package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-ch/fitclub-server/internal/api/testutils"
	"github.com/fitclub-ch/fitclub-server/internal/models"
)

func TestGetCredits(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 10, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var data models.CreditsData
	ok, _ := testutils.DecodeEnvelope(t, w, &data)
	require.True(t, ok)
	assert.Equal(t, 10, data.Balance)
	require.Len(t, data.Ledger, 1)
	assert.Equal(t, models.LedgerKindEarned, data.Ledger[0].Kind)
	assert.Equal(t, "Welcome credits", data.Ledger[0].Description)
}

func TestGiftCredits(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 10, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	recipientID, recipientJWT := testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	req := models.GiftCreditsRequest{
		RecipientEmail: "anna@example.com",
		Amount:         4,
		Message:        "great spot today",
	}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var gift models.GiftData
	ok, _ := testutils.DecodeEnvelope(t, w, &gift)
	require.True(t, ok)
	assert.Equal(t, 6, gift.NewBalance)
	require.NotNil(t, gift.Transaction)
	assert.Equal(t, models.LedgerKindSpent, gift.Transaction.Kind)
	assert.Equal(t, models.LedgerSourceGift, gift.Transaction.Source)
	assert.Equal(t, 4, gift.Transaction.Amount)
	assert.Equal(t, "Gift to Anna Keller: great spot today", gift.Transaction.Description)

	// Sender ledger: the gift entry comes before the welcome credits.
	w = testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var sender models.CreditsData
	_, _ = testutils.DecodeEnvelope(t, w, &sender)
	assert.Equal(t, 6, sender.Balance)
	require.Len(t, sender.Ledger, 2)
	assert.Equal(t, models.LedgerKindSpent, sender.Ledger[0].Kind)
	assert.Equal(t, "Welcome credits", sender.Ledger[1].Description)

	// Recipient sees the credit with the mirrored description.
	w = testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(recipientJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var recipient models.CreditsData
	_, _ = testutils.DecodeEnvelope(t, w, &recipient)
	assert.Equal(t, 4, recipient.Balance)
	require.Len(t, recipient.Ledger, 1)
	assert.Equal(t, models.LedgerKindEarned, recipient.Ledger[0].Kind)
	assert.Equal(t, "Gift from Test Member: great spot today", recipient.Ledger[0].Description)
	assert.Equal(t, recipientID, recipient.Ledger[0].MemberID)
}

func TestGiftCreditsRecipientEmailIgnoresCase(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 10, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	recipientID, _ := testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	req := models.GiftCreditsRequest{RecipientEmail: "Anna@Example.COM", Amount: 2}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusOK, w.Code)

	recipient, err := tc.Repository.GetMemberByID(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, 2, recipient.Credits)
}

func TestGiftCreditsOverdraft(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 3, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	req := models.GiftCreditsRequest{RecipientEmail: "anna@example.com", Amount: 5}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
	require.Equal(t, http.StatusConflict, w.Code)

	ok, apiErr := testutils.DecodeEnvelope(t, w, nil)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, models.CodeInsufficientBalance, apiErr.Code)

	// A rejected gift leaves the balance and the ledger untouched.
	w = testutils.PerformRequest(tc.Router, "GET", "/api/credits", nil, testutils.AuthHeaders(tc.MemberJWT))
	var data models.CreditsData
	_, _ = testutils.DecodeEnvelope(t, w, &data)
	assert.Equal(t, 3, data.Balance)
	assert.Len(t, data.Ledger, 1)
}

func TestGiftCreditsValidation(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	ctx := context.Background()

	_, _, err := tc.Repository.AddCredits(ctx, tc.MemberID, 10, models.LedgerSourceAdjustment, "Welcome credits")
	require.NoError(t, err)

	testutils.CreateTestMember(t, tc.Repository, "anna@example.com", "Anna Keller", models.RoleMember)

	t.Run("negative amount", func(t *testing.T) {
		req := models.GiftCreditsRequest{RecipientEmail: "anna@example.com", Amount: -2}
		w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gift to self", func(t *testing.T) {
		req := models.GiftCreditsRequest{RecipientEmail: "member@example.com", Amount: 2}
		w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		req := models.GiftCreditsRequest{RecipientEmail: "nobody@example.com", Amount: 2}
		w := testutils.PerformRequest(tc.Router, "POST", "/api/credits/gift", req, testutils.AuthHeaders(tc.MemberJWT))
		require.Equal(t, http.StatusNotFound, w.Code)

		_, apiErr := testutils.DecodeEnvelope(t, w, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, models.CodeNotFound, apiErr.Code)
	})
}
