package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
	"github.com/noah-isme/referral-api/pkg/response"
)

type adminAuthService interface {
	RegisterAdmin(ctx context.Context, req dto.AdminSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
	LoginAdmin(ctx context.Context, req dto.AdminLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
}

type referralLister interface {
	ListCollegesWithReferrals(ctx context.Context, query dto.ReferralQuery) ([]dto.CollegeWithReferrals, error)
}

type referralExporter interface {
	ExportReferrals(ctx context.Context, format dto.ExportFormat) (*dto.ReferralReport, error)
}

// AdminHandler serves admin accounts and the referral overview.
type AdminHandler struct {
	auth      adminAuthService
	referrals referralLister
	exports   referralExporter
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(auth adminAuthService, referrals referralLister, exports referralExporter) *AdminHandler {
	return &AdminHandler{auth: auth, referrals: referrals, exports: exports}
}

// Signup godoc
// @Summary Register admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.AdminSignupRequest true "Admin signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/signup [post]
func (h *AdminHandler) Signup(c *gin.Context) {
	var req dto.AdminSignupRequest
	if !bindJSON(c, &req, "invalid admin signup payload") {
		return
	}
	res, err := h.auth.RegisterAdmin(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.AdminLoginRequest true "Admin login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if !bindJSON(c, &req, "invalid admin login payload") {
		return
	}
	res, err := h.auth.LoginAdmin(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ListReferrals godoc
// @Summary List colleges with referred schools
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param includeDisabled query bool false "Include disabled schools"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/referrals [get]
func (h *AdminHandler) ListReferrals(c *gin.Context) {
	var query dto.ReferralQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid referral query"))
		return
	}
	res, err := h.referrals.ListCollegesWithReferrals(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ExportReferrals godoc
// @Summary Download the referral report
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/referrals/export [get]
func (h *AdminHandler) ExportReferrals(c *gin.Context) {
	report, err := h.exports.ExportReferrals(c.Request.Context(), dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, report.Filename, report.ContentType, report.Body)
}
