package app

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fitclub-ch/fitclub-server/internal/models"
	"github.com/fitclub-ch/fitclub-server/internal/repository"
)

// seedDemoData fills the memory repository with the fixture set the member
// dashboard pages were built against. Demo credentials: every member logs
// in with "password123".
func seedDemoData(ctx context.Context, repo repository.Repository) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	members := []*models.Member{
		{Email: "admin@fitclub.ch", Name: "Studio Admin", Role: models.RoleAdmin},
		{Email: "anna@example.com", Name: "Anna Keller", Role: models.RoleMember},
		{Email: "marco@example.com", Name: "Marco Bianchi", Role: models.RoleMember},
	}
	for _, m := range members {
		m.Password = string(hash)
		if err := repo.CreateMember(ctx, m); err != nil {
			return err
		}
	}

	// Non-admin members start with a usable balance.
	for _, m := range members[1:] {
		if _, _, err := repo.AddCredits(ctx, m.ID, 10, models.LedgerSourceAdjustment, "Welcome credits"); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	sessions := []*models.ClassSession{
		{
			Name: "Morning HIIT", Trainer: "Sarah Meier", StartsAt: now.Add(24 * time.Hour),
			Location: "Studio 1", Capacity: 12, CreditCost: 1, CheckInCode: "1234",
		},
		{
			Name: "Power Yoga", Trainer: "Luca Romano", StartsAt: now.Add(48 * time.Hour),
			Location: "Studio 2", Capacity: 16, CreditCost: 1, CheckInCode: "checkin",
		},
		{
			Name: "Spin Express", Trainer: "Sarah Meier", StartsAt: now.Add(72 * time.Hour),
			Location: "Studio 1", Capacity: 8, CreditCost: 2, CheckInCode: "spin42",
		},
	}
	for _, s := range sessions {
		if err := repo.CreateClassSession(ctx, s); err != nil {
			return err
		}
	}

	photos := []*models.Photo{
		{
			URL: "/photos/hiit-group.jpg", ClassName: "Morning HIIT", Trainer: "Sarah Meier",
			TakenAt: now.Add(-72 * time.Hour), IsPublic: true,
		},
		{
			URL: "/photos/yoga-session.jpg", ClassName: "Power Yoga", Trainer: "Luca Romano",
			TakenAt: now.Add(-48 * time.Hour), IsPublic: false, AccessCode: "summer24",
		},
		{
			URL: "/photos/yoga-closing.jpg", ClassName: "Power Yoga", Trainer: "Luca Romano",
			TakenAt: now.Add(-48 * time.Hour), IsPublic: false, AccessCode: "summer24",
		},
	}
	for _, p := range photos {
		if err := repo.CreatePhoto(ctx, p); err != nil {
			return err
		}
	}

	return nil
}
