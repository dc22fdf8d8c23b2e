package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	"github.com/noah-isme/referral-api/internal/repository"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

type authFixture struct {
	svc         *AuthService
	admins      *fakeAdmins
	colleges    *fakeColleges
	schools     *fakeSchools
	audit       *fakeAudit
	invalidator *fakeInvalidator
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		admins:      newFakeAdmins(),
		colleges:    &fakeColleges{},
		schools:     &fakeSchools{},
		audit:       &fakeAudit{},
		invalidator: &fakeInvalidator{},
	}
	f.svc = NewAuthService(f.admins, f.colleges, f.schools, f.audit, f.invalidator, NewMetricsService(), validator.New(), zap.NewNop(), AuthConfig{
		Secret: "secret",
		Expiry: time.Hour,
		Issuer: "referral-api",
	})
	return f
}

func collegeSignup(email string) dto.CollegeSignupRequest {
	return dto.CollegeSignupRequest{
		Name:             "Asha Rao",
		Password:         "secret1",
		YearOfGraduation: 2024,
		PhoneNumber:      "9876543210",
		Email:            email,
		CollegeName:      "IIT Bombay",
	}
}

func schoolSignup(phone, code string) dto.SchoolSignupRequest {
	return dto.SchoolSignupRequest{
		Name:         "Meera",
		SchoolName:   "DPS Pune",
		Password:     "secret1",
		PhoneNumber:  phone,
		Standard:     "10",
		Address:      "Pune",
		ReferralCode: code,
	}
}

func TestAuthServiceRegisterAdmin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	res, err := f.svc.RegisterAdmin(ctx, dto.AdminSignupRequest{Name: "Root", Username: "root", Password: "secret1"}, models.RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	admin := res.User.(*models.Admin)
	assert.Equal(t, "root", admin.Username)

	cost, err := bcrypt.Cost([]byte(admin.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, PasswordHashCost, cost)

	claims, err := f.svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.ID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.Equal(t, []string{models.AuditActionSignup}, f.audit.actions())

	_, err = f.svc.RegisterAdmin(ctx, dto.AdminSignupRequest{Name: "Other", Username: "root", Password: "secret2"}, models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestAuthServiceRegisterAdminConflictOnInsertRace(t *testing.T) {
	f := newAuthFixture()
	f.admins.createErr = &repository.DuplicateError{Constraint: repository.ConstraintAdminUsername}

	_, err := f.svc.RegisterAdmin(context.Background(), dto.AdminSignupRequest{Name: "Root", Username: "root", Password: "secret1"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthServiceRegisterAdminValidation(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.RegisterAdmin(context.Background(), dto.AdminSignupRequest{Name: "Root", Username: "root", Password: "123"}, models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.admins.byUsername)
}

func TestAuthServiceLoginAdmin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, err := f.svc.RegisterAdmin(ctx, dto.AdminSignupRequest{Name: "Root", Username: "root", Password: "secret1"}, models.RequestMeta{})
	require.NoError(t, err)

	res, err := f.svc.LoginAdmin(ctx, dto.AdminLoginRequest{Username: "root", Password: "secret1"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "login successful", res.Message)

	_, err = f.svc.LoginAdmin(ctx, dto.AdminLoginRequest{Username: "root", Password: "wrong-pass"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.LoginAdmin(ctx, dto.AdminLoginRequest{Username: "nobody", Password: "secret1"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAuthServiceRegisterCollegeGeneratesReferralCode(t *testing.T) {
	f := newAuthFixture()

	res, err := f.svc.RegisterCollege(context.Background(), collegeSignup("Asha@Example.com "), models.RequestMeta{})
	require.NoError(t, err)
	college := res.User.(*models.College)
	assert.Equal(t, "asha@example.com", college.Email)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-Z]{10}$`), college.ReferralCode)
	assert.Equal(t, 1, f.invalidator.calls)

	_, err = f.svc.RegisterCollege(context.Background(), collegeSignup("asha@example.com"), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthServiceRegisterCollegeRetriesCodeCollision(t *testing.T) {
	f := newAuthFixture()
	f.colleges.items = append(f.colleges.items, &models.College{ID: "c-0", Email: "first@example.com", ReferralCode: "AAAAAAAAAA"})
	codes := []string{"AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
	f.svc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	res, err := f.svc.RegisterCollege(context.Background(), collegeSignup("second@example.com"), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBB", res.User.(*models.College).ReferralCode)
	assert.Empty(t, codes)
}

func TestAuthServiceRegisterCollegeGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newAuthFixture()
	f.colleges.items = append(f.colleges.items, &models.College{ID: "c-0", Email: "first@example.com", ReferralCode: "AAAAAAAAAA"})
	f.svc.newCode = func() (string, error) { return "AAAAAAAAAA", nil }

	_, err := f.svc.RegisterCollege(context.Background(), collegeSignup("second@example.com"), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuthServiceLoginCollegeNormalizesEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.RegisterCollege(ctx, collegeSignup("a@x.com"), models.RequestMeta{})
	require.NoError(t, err)

	res, err := f.svc.LoginCollege(ctx, dto.CollegeLoginRequest{Email: " A@X.com ", Password: "secret1"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.(*models.College).Email)

	_, err = f.svc.LoginCollege(ctx, dto.CollegeLoginRequest{Email: " b@x.com", Password: "secret1"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAuthServiceRejectsValuesWiderThanColumns(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	long := strings.Repeat("9", 40)

	school := schoolSignup(long, "")
	_, err := f.svc.RegisterSchool(ctx, school, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	school = schoolSignup("9876543210", "")
	school.Standard = long
	_, err = f.svc.RegisterSchool(ctx, school, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.schools.items)

	college := collegeSignup("wide@example.com")
	college.CollegeName = strings.Repeat("x", 256)
	_, err = f.svc.RegisterCollege(ctx, college, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.colleges.items)

	_, err = f.svc.RegisterAdmin(ctx, dto.AdminSignupRequest{Name: "Root", Username: strings.Repeat("u", 256), Password: "secret1"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRegisterSchoolNormalizesReferralCode(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	res, err := f.svc.RegisterSchool(ctx, schoolSignup("9876543210", " abc123xyz0 "), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "ABC123XYZ0", res.User.(*models.School).ReferralCode)
	assert.True(t, res.User.(*models.School).IsEnabled)
	assert.Equal(t, 1, f.invalidator.calls)

	res, err = f.svc.RegisterSchool(ctx, schoolSignup("9876543211", ""), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.DirectReferralCode, res.User.(*models.School).ReferralCode)
	assert.Equal(t, 1, f.invalidator.calls)

	_, err = f.svc.RegisterSchool(ctx, schoolSignup("9876543210", ""), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthServiceLoginSchool(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	res, err := f.svc.RegisterSchool(ctx, schoolSignup("9876543210", ""), models.RequestMeta{})
	require.NoError(t, err)
	school := res.User.(*models.School)

	login, err := f.svc.LoginSchool(ctx, dto.SchoolLoginRequest{Identifier: "9876543210", Password: "secret1"}, models.RequestMeta{})
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, school.ID, claims.ID)
	assert.Equal(t, models.RoleSchool, claims.Role)

	_, err = f.svc.LoginSchool(ctx, dto.SchoolLoginRequest{Identifier: "9876543210", Password: "nope-nope"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	require.NoError(t, f.schools.SetEnabled(ctx, school.ID, false))
	_, err = f.svc.LoginSchool(ctx, dto.SchoolLoginRequest{Identifier: "9876543210", Password: "secret1"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrAccountDisabled)
}

func TestAuthServiceValidateTokenRejectsForeignAlgorithms(t *testing.T) {
	f := newAuthFixture()
	claims := &models.JWTClaims{
		ID:   "a-1",
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = f.svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	f := newAuthFixture()
	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return issued }
	token, err := f.svc.IssueToken("a-1", models.RoleAdmin)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = f.svc.ValidateToken(token)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = f.svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceAuditFailureDoesNotFailSignup(t *testing.T) {
	f := newAuthFixture()
	f.audit.err = errors.New("audit table missing")

	_, err := f.svc.RegisterAdmin(context.Background(), dto.AdminSignupRequest{Name: "Root", Username: "root", Password: "secret1"}, models.RequestMeta{})
	assert.NoError(t, err)
}

func TestNormalizeReferralCode(t *testing.T) {
	assert.Equal(t, models.DirectReferralCode, NormalizeReferralCode("   "))
	assert.Equal(t, "XYZ", NormalizeReferralCode(" xyz "))
}

func TestGenerateReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, referralCodeLength)
		assert.Regexp(t, `^[0-9A-Z]+$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
