package handler

import (
	"context"
	"io"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
)

type authServiceMock struct {
	res        *dto.AuthResponse
	err        error
	lastAdmin  dto.AdminSignupRequest
	lastSchool dto.SchoolSignupRequest
	lastLogin  dto.SchoolLoginRequest
	lastMeta   models.RequestMeta
	calls      int
}

func (m *authServiceMock) RegisterAdmin(ctx context.Context, req dto.AdminSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	m.lastAdmin = req
	m.lastMeta = meta
	return m.res, m.err
}

func (m *authServiceMock) LoginAdmin(ctx context.Context, req dto.AdminLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	return m.res, m.err
}

func (m *authServiceMock) RegisterCollege(ctx context.Context, req dto.CollegeSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	return m.res, m.err
}

func (m *authServiceMock) LoginCollege(ctx context.Context, req dto.CollegeLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	return m.res, m.err
}

func (m *authServiceMock) RegisterSchool(ctx context.Context, req dto.SchoolSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	m.lastSchool = req
	return m.res, m.err
}

func (m *authServiceMock) LoginSchool(ctx context.Context, req dto.SchoolLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error) {
	m.calls++
	m.lastLogin = req
	return m.res, m.err
}

type referralServiceMock struct {
	list        []dto.CollegeWithReferrals
	college     *dto.CollegeReferrals
	school      *models.School
	err         error
	lastQuery   dto.ReferralQuery
	lastID      string
	lastActor   models.Actor
	lastEnabled *bool
}

func (m *referralServiceMock) ListCollegesWithReferrals(ctx context.Context, query dto.ReferralQuery) ([]dto.CollegeWithReferrals, error) {
	m.lastQuery = query
	return m.list, m.err
}

func (m *referralServiceMock) GetCollegeWithReferrals(ctx context.Context, id string, query dto.ReferralQuery, actor models.Actor) (*dto.CollegeReferrals, error) {
	m.lastID, m.lastQuery, m.lastActor = id, query, actor
	return m.college, m.err
}

func (m *referralServiceMock) DisableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error {
	enabled := false
	m.lastID, m.lastActor, m.lastEnabled = id, actor, &enabled
	return m.err
}

func (m *referralServiceMock) EnableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error {
	enabled := true
	m.lastID, m.lastActor, m.lastEnabled = id, actor, &enabled
	return m.err
}

func (m *referralServiceMock) GetSchool(ctx context.Context, id string, actor models.Actor) (*models.School, error) {
	m.lastID, m.lastActor = id, actor
	return m.school, m.err
}

type exportServiceMock struct {
	report     *dto.ReferralReport
	err        error
	lastFormat dto.ExportFormat
}

func (m *exportServiceMock) ExportReferrals(ctx context.Context, format dto.ExportFormat) (*dto.ReferralReport, error) {
	m.lastFormat = format
	return m.report, m.err
}

type mediaServiceMock struct {
	res      *dto.UploadVideoResponse
	err      error
	called   bool
	schoolID string
	upload   dto.VideoUpload
	content  []byte
}

func (m *mediaServiceMock) UploadVideo(ctx context.Context, schoolID string, file dto.VideoUpload, actor models.Actor, meta models.RequestMeta) (*dto.UploadVideoResponse, error) {
	m.called = true
	m.schoolID = schoolID
	m.upload = file
	if file.Content != nil {
		m.content, _ = io.ReadAll(file.Content)
	}
	return m.res, m.err
}
