package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
	"github.com/noah-isme/referral-api/pkg/response"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the configured file size limit.
const multipartOverhead = 1 << 20

type collegeAuthService interface {
	RegisterCollege(ctx context.Context, req dto.CollegeSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
	LoginCollege(ctx context.Context, req dto.CollegeLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
}

type schoolModerator interface {
	GetCollegeWithReferrals(ctx context.Context, id string, query dto.ReferralQuery, actor models.Actor) (*dto.CollegeReferrals, error)
	DisableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error
	EnableSchool(ctx context.Context, id string, actor models.Actor, meta models.RequestMeta) error
}

type videoUploader interface {
	UploadVideo(ctx context.Context, schoolID string, file dto.VideoUpload, actor models.Actor, meta models.RequestMeta) (*dto.UploadVideoResponse, error)
}

// CollegeHandler serves college accounts and the school moderation actions
// available to colleges and admins.
type CollegeHandler struct {
	auth           collegeAuthService
	referrals      schoolModerator
	media          videoUploader
	maxUploadBytes int64
}

// NewCollegeHandler creates a new handler. maxUploadBytes <= 0 disables the
// request body limit.
func NewCollegeHandler(auth collegeAuthService, referrals schoolModerator, media videoUploader, maxUploadBytes int64) *CollegeHandler {
	return &CollegeHandler{auth: auth, referrals: referrals, media: media, maxUploadBytes: maxUploadBytes}
}

// Signup godoc
// @Summary Register college
// @Description Creates a college account and returns its generated referral code
// @Tags College
// @Accept json
// @Produce json
// @Param payload body dto.CollegeSignupRequest true "College signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /college/signup [post]
func (h *CollegeHandler) Signup(c *gin.Context) {
	var req dto.CollegeSignupRequest
	if !bindJSON(c, &req, "invalid college signup payload") {
		return
	}
	res, err := h.auth.RegisterCollege(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate college
// @Tags College
// @Accept json
// @Produce json
// @Param payload body dto.CollegeLoginRequest true "College login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/login [post]
func (h *CollegeHandler) Login(c *gin.Context) {
	var req dto.CollegeLoginRequest
	if !bindJSON(c, &req, "invalid college login payload") {
		return
	}
	res, err := h.auth.LoginCollege(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Get godoc
// @Summary Get college with referrals
// @Tags College
// @Produce json
// @Security BearerAuth
// @Param id path string true "College ID"
// @Param includeDisabled query bool false "Include disabled schools"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/{id} [get]
func (h *CollegeHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.ReferralQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid referral query"))
		return
	}
	res, err := h.referrals.GetCollegeWithReferrals(c.Request.Context(), c.Param("id"), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// DisableSchool godoc
// @Summary Disable a school
// @Description Soft-deletes the school identified by id. Repeating the call succeeds.
// @Tags College
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/{id} [post]
func (h *CollegeHandler) DisableSchool(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.referrals.DisableSchool(c.Request.Context(), c.Param("id"), actor, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "school disabled successfully")
}

// EnableSchool godoc
// @Summary Re-enable a school
// @Tags College
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/{id}/enable [post]
func (h *CollegeHandler) EnableSchool(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.referrals.EnableSchool(c.Request.Context(), c.Param("id"), actor, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "school enabled successfully")
}

// UploadVideo godoc
// @Summary Upload a school video
// @Tags College
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param file formData file true "Video file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /college/{id}/upload [post]
func (h *CollegeHandler) UploadVideo(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	var upload dto.VideoUpload
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		file, openErr := header.Open()
		if openErr != nil {
			response.Error(c, appErrors.Internal(openErr, "failed to read upload"))
			return
		}
		defer file.Close()
		upload = dto.VideoUpload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Content:  file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// an empty upload is rejected by the service
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "file too large"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid multipart payload"))
		return
	}

	res, err := h.media.UploadVideo(c.Request.Context(), c.Param("id"), upload, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
