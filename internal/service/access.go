package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

type collegeFinder interface {
	FindByID(ctx context.Context, id string) (*models.College, error)
}

// authorizeSchool decides whether actor may act on school. Admins may act on
// any school and colleges only on schools carrying their referral code.
// allowSelf additionally admits the school itself (read access).
func authorizeSchool(ctx context.Context, colleges collegeFinder, actor models.Actor, school *models.School, allowSelf bool) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCollege:
		college, err := colleges.FindByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrForbidden, "college account no longer exists")
			}
			return appErrors.Internal(err, "failed to load college")
		}
		if school.IsDirect() || college.ReferralCode != school.ReferralCode {
			return appErrors.Clone(appErrors.ErrForbidden, "school was not referred by this college")
		}
		return nil
	case models.RoleSchool:
		if allowSelf && actor.ID == school.ID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
}
