package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	"github.com/noah-isme/referral-api/internal/repository"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

const (
	// PasswordHashCost is the bcrypt work factor for every principal.
	PasswordHashCost = 10

	referralCodeLength   = 10
	referralCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referralCodeAttempts = 5
)

type adminAccounts interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type collegeAccounts interface {
	Create(ctx context.Context, college *models.College) error
	FindByEmail(ctx context.Context, email string) (*models.College, error)
}

type schoolAccounts interface {
	Create(ctx context.Context, school *models.School) error
	FindByPhone(ctx context.Context, phone string) (*models.School, error)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type referralInvalidator interface {
	InvalidateReferrals(ctx context.Context)
}

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService registers and authenticates admins, colleges and schools.
type AuthService struct {
	admins      adminAccounts
	colleges    collegeAccounts
	schools     schoolAccounts
	audit       auditRecorder
	invalidator referralInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	now         func() time.Time
	newCode     func() (string, error)
}

// NewAuthService constructs an AuthService instance. audit, invalidator and
// metrics may be nil.
func NewAuthService(admins adminAccounts, colleges collegeAccounts, schools schoolAccounts, audit auditRecorder, invalidator referralInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &AuthService{
		admins:      admins,
		colleges:    colleges,
		schools:     schools,
		audit:       audit,
		invalidator: invalidator,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      config,
		now:         time.Now,
		newCode:     GenerateReferralCode,
	}
}

// RegisterAdmin creates an admin account and signs it in.
func (s *AuthService) RegisterAdmin(ctx context.Context, req dto.AdminSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin signup payload")
	}
	if _, err := s.admins.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admin already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check admin")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{Name: req.Name, Username: req.Username, PasswordHash: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintAdminUsername) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admin already exists")
		}
		return nil, appErrors.Internal(err, "failed to create admin")
	}

	return s.completeSignup(ctx, admin.ID, models.RoleAdmin, "admin created", admin, meta)
}

// LoginAdmin authenticates an admin by username.
func (s *AuthService) LoginAdmin(ctx context.Context, req dto.AdminLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin login payload")
	}
	admin, err := s.admins.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, s.loginLookupError(models.RoleAdmin, err, "admin not found")
	}
	if err := s.checkPassword(models.RoleAdmin, admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, admin.ID, models.RoleAdmin, admin, meta)
}

// RegisterCollege creates a college account with a freshly generated
// referral code.
func (s *AuthService) RegisterCollege(ctx context.Context, req dto.CollegeSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college signup payload")
	}
	email := req.Email

	if _, err := s.colleges.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "college already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check college")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	college := &models.College{
		Name:             req.Name,
		PasswordHash:     hash,
		Email:            email,
		CollegeName:      req.CollegeName,
		YearOfGraduation: int(req.YearOfGraduation),
		PhoneNumber:      req.PhoneNumber,
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate referral code")
		}
		college.ReferralCode = code
		err = s.colleges.Create(ctx, college)
		if err == nil {
			break
		}
		if repository.IsDuplicate(err, repository.ConstraintCollegeEmail) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "college already exists")
		}
		if repository.IsDuplicate(err, repository.ConstraintCollegeReferralCode) && attempt < referralCodeAttempts {
			s.logger.Warn("referral code collision, regenerating", zap.Int("attempt", attempt))
			college.ID = ""
			continue
		}
		return nil, appErrors.Internal(err, "failed to create college")
	}

	s.invalidateReferrals(ctx)
	return s.completeSignup(ctx, college.ID, models.RoleCollege, "college user created successfully", college, meta)
}

// LoginCollege authenticates a college by email.
func (s *AuthService) LoginCollege(ctx context.Context, req dto.CollegeLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college login payload")
	}
	college, err := s.colleges.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.loginLookupError(models.RoleCollege, err, "user not found")
	}
	if err := s.checkPassword(models.RoleCollege, college.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, college.ID, models.RoleCollege, college, meta)
}

// RegisterSchool creates a student account. The referral code is stored
// upper-cased; an empty code registers the student as DIRECT. Codes that
// match no college are accepted and simply never appear in a referral list.
func (s *AuthService) RegisterSchool(ctx context.Context, req dto.SchoolSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	req.ReferralCode = NormalizeReferralCode(req.ReferralCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school signup payload")
	}
	phone := req.PhoneNumber

	if _, err := s.schools.FindByPhone(ctx, phone); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "school user already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check school")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	school := &models.School{
		Name:         req.Name,
		PasswordHash: hash,
		PhoneNumber:  phone,
		SchoolName:   req.SchoolName,
		Standard:     req.Standard,
		Address:      req.Address,
		ReferralCode: req.ReferralCode,
		IsEnabled:    true,
	}
	if feedback := req.FeedbackDetails; feedback != "" {
		school.FeedbackDetails = &feedback
	}
	if err := s.schools.Create(ctx, school); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintSchoolPhone) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "school user already exists")
		}
		return nil, appErrors.Internal(err, "failed to create school")
	}

	if !school.IsDirect() {
		s.invalidateReferrals(ctx)
	}
	return s.completeSignup(ctx, school.ID, models.RoleSchool, "school user created successfully", school, meta)
}

// LoginSchool authenticates a student by phone number.
func (s *AuthService) LoginSchool(ctx context.Context, req dto.SchoolLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school login payload")
	}
	school, err := s.schools.FindByPhone(ctx, req.Identifier)
	if err != nil {
		return nil, s.loginLookupError(models.RoleSchool, err, "user not found")
	}
	if err := s.checkPassword(models.RoleSchool, school.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	if !school.IsEnabled {
		s.metrics.RecordLogin(models.RoleSchool, appErrors.ErrAccountDisabled.Code)
		return nil, appErrors.Clone(appErrors.ErrAccountDisabled, "account is disabled")
	}
	return s.completeLogin(ctx, school.ID, models.RoleSchool, school, meta)
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.ID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// IssueToken signs a session token for the principal.
func (s *AuthService) IssueToken(id string, role models.Role) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) completeSignup(ctx context.Context, id string, role models.Role, message string, user interface{}, meta models.RequestMeta) (*dto.AuthResponse, error) {
	token, err := s.IssueToken(id, role)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create token")
	}
	s.metrics.RecordSignup(role)
	s.recordAudit(ctx, id, role, models.AuditActionSignup, meta)
	s.logger.Info("principal registered", zap.String("role", string(role)), zap.String("id", id))
	return &dto.AuthResponse{Message: message, Token: token, User: user}, nil
}

func (s *AuthService) completeLogin(ctx context.Context, id string, role models.Role, user interface{}, meta models.RequestMeta) (*dto.AuthResponse, error) {
	token, err := s.IssueToken(id, role)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create token")
	}
	s.metrics.RecordLogin(role, "success")
	s.recordAudit(ctx, id, role, models.AuditActionLogin, meta)
	return &dto.AuthResponse{Message: "login successful", Token: token, User: user}, nil
}

func (s *AuthService) loginLookupError(role models.Role, err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordLogin(role, appErrors.ErrNotFound.Code)
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, "failed to load account")
}

func (s *AuthService) checkPassword(role models.Role, hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.metrics.RecordLogin(role, appErrors.ErrInvalidCredentials.Code)
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}
	return nil
}

func (s *AuthService) recordAudit(ctx context.Context, id string, role models.Role, action string, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	roleName := string(role)
	payload, _ := json.Marshal(map[string]string{"status": "success"})
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &id,
		ActorRole:  &roleName,
		Action:     action,
		Resource:   roleName,
		ResourceID: &id,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *AuthService) invalidateReferrals(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateReferrals(ctx)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

// NormalizeReferralCode trims and upper-cases a school's referral code,
// mapping an empty value to DIRECT.
func NormalizeReferralCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.DirectReferralCode
	}
	return code
}

// GenerateReferralCode returns a random upper-case base-36 code.
func GenerateReferralCode() (string, error) {
	limit := big.NewInt(int64(len(referralCodeAlphabet)))
	buf := make([]byte, referralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
