package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	"github.com/noah-isme/referral-api/pkg/response"
)

type schoolAuthService interface {
	RegisterSchool(ctx context.Context, req dto.SchoolSignupRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
	LoginSchool(ctx context.Context, req dto.SchoolLoginRequest, meta models.RequestMeta) (*dto.AuthResponse, error)
}

type schoolReader interface {
	GetSchool(ctx context.Context, id string, actor models.Actor) (*models.School, error)
}

// SchoolHandler serves student accounts.
type SchoolHandler struct {
	auth    schoolAuthService
	schools schoolReader
}

// NewSchoolHandler creates a new handler.
func NewSchoolHandler(auth schoolAuthService, schools schoolReader) *SchoolHandler {
	return &SchoolHandler{auth: auth, schools: schools}
}

// Signup godoc
// @Summary Register student
// @Description An empty referral code registers the student as DIRECT
// @Tags School
// @Accept json
// @Produce json
// @Param payload body dto.SchoolSignupRequest true "School signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /school/signup [post]
func (h *SchoolHandler) Signup(c *gin.Context) {
	var req dto.SchoolSignupRequest
	if !bindJSON(c, &req, "invalid school signup payload") {
		return
	}
	res, err := h.auth.RegisterSchool(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate student
// @Description identifier is the registered phone number
// @Tags School
// @Accept json
// @Produce json
// @Param payload body dto.SchoolLoginRequest true "School login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /school/login [post]
func (h *SchoolHandler) Login(c *gin.Context) {
	var req dto.SchoolLoginRequest
	if !bindJSON(c, &req, "invalid school login payload") {
		return
	}
	res, err := h.auth.LoginSchool(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Get godoc
// @Summary Get a school
// @Tags School
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /school/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	school, err := h.schools.GetSchool(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school)
}
