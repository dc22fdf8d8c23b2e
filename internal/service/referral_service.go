package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

const (
	referralCacheAll     = "admin:all"
	referralCacheEnabled = "admin:enabled"
)

type collegeDirectory interface {
	collegeFinder
	List(ctx context.Context) ([]models.College, error)
}

type schoolDirectory interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

// ReferralService answers which schools each college referred and manages
// the soft-delete flag on schools.
type ReferralService struct {
	colleges collegeDirectory
	schools  schoolDirectory
	audit    auditRecorder
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReferralService constructs a ReferralService. audit, cache and metrics
// may be nil.
func NewReferralService(colleges collegeDirectory, schools schoolDirectory, audit auditRecorder, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReferralService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{colleges: colleges, schools: schools, audit: audit, cache: cache, metrics: metrics, logger: logger}
}

// ListCollegesWithReferrals returns every college with the schools that
// registered using its code.
func (s *ReferralService) ListCollegesWithReferrals(ctx context.Context, query dto.ReferralQuery) ([]dto.CollegeWithReferrals, error) {
	cacheKey := referralCacheEnabled
	if query.IncludeDisabled {
		cacheKey = referralCacheAll
	}
	var cached []dto.CollegeWithReferrals
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	colleges, err := s.colleges.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list colleges")
	}
	schools, err := s.schools.List(ctx, models.SchoolFilter{ExcludeDirect: true, IncludeDisabled: query.IncludeDisabled})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list schools")
	}

	index := IndexByReferralCode(schools)
	result := make([]dto.CollegeWithReferrals, 0, len(colleges))
	for _, college := range colleges {
		referred := index[college.ReferralCode]
		if referred == nil {
			referred = []models.School{}
		}
		result = append(result, dto.CollegeWithReferrals{College: college, ReferredSchools: referred})
	}

	s.cache.Set(ctx, cacheKey, result, 0)
	return result, nil
}

// GetCollegeWithReferrals returns one college with its referred schools.
// Colleges may only read their own record.
func (s *ReferralService) GetCollegeWithReferrals(ctx context.Context, id string, query dto.ReferralQuery, actor models.Actor) (*dto.CollegeReferrals, error) {
	if !actor.IsAdmin() && !(actor.Role == models.RoleCollege && actor.ID == id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
	}
	college, err := s.colleges.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load college")
	}

	schools, err := s.schools.List(ctx, models.SchoolFilter{
		ReferralCodes:   []string{college.ReferralCode},
		IncludeDisabled: query.IncludeDisabled,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list referrals")
	}
	if schools == nil {
		schools = []models.School{}
	}
	return &dto.CollegeReferrals{CollegeUser: *college, Referrals: schools}, nil
}

// GetSchool returns a school, including disabled ones, to an admin, the
// referring college or the school itself.
func (s *ReferralService) GetSchool(ctx context.Context, id string, actor models.Actor) (*models.School, error) {
	school, err := s.findSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeSchool(ctx, s.colleges, actor, school, true); err != nil {
		return nil, err
	}
	return school, nil
}

// DisableSchool soft-deletes a school. Disabling an already disabled school
// succeeds.
func (s *ReferralService) DisableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error {
	return s.setSchoolEnabled(ctx, id, false, actor, meta)
}

// EnableSchool reverses DisableSchool.
func (s *ReferralService) EnableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error {
	return s.setSchoolEnabled(ctx, id, true, actor, meta)
}

func (s *ReferralService) setSchoolEnabled(ctx context.Context, id string, enabled bool, actor models.Actor, meta models.RequestMeta) error {
	school, err := s.findSchool(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeSchool(ctx, s.colleges, actor, school, false); err != nil {
		return err
	}
	if err := s.schools.SetEnabled(ctx, id, enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return appErrors.Internal(err, "failed to update school")
	}

	s.metrics.RecordSchoolStatus(enabled)
	s.InvalidateReferrals(ctx)

	action := models.AuditActionSchoolDisable
	if enabled {
		action = models.AuditActionSchoolEnable
	}
	s.recordAudit(ctx, actor, action, id, map[string]interface{}{"isEnabled": enabled}, meta)
	s.logger.Info("school status changed",
		zap.String("school_id", id),
		zap.Bool("enabled", enabled),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)
	return nil
}

// InvalidateReferrals drops the cached admin listings.
func (s *ReferralService) InvalidateReferrals(ctx context.Context) {
	s.cache.Invalidate(ctx, referralCacheAll, referralCacheEnabled)
}

func (s *ReferralService) findSchool(ctx context.Context, id string) (*models.School, error) {
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Internal(err, "failed to load school")
	}
	return school, nil
}

func (s *ReferralService) recordAudit(ctx context.Context, actor models.Actor, action, schoolID string, values map[string]interface{}, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	role := string(actor.Role)
	payload, _ := json.Marshal(values)
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &actor.ID,
		ActorRole:  &role,
		Action:     action,
		Resource:   "school",
		ResourceID: &schoolID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

// IndexByReferralCode groups schools by referral code, keeping input order
// within each group.
func IndexByReferralCode(schools []models.School) map[string][]models.School {
	index := make(map[string][]models.School)
	for _, school := range schools {
		if school.IsDirect() {
			continue
		}
		index[school.ReferralCode] = append(index[school.ReferralCode], school)
	}
	return index
}
