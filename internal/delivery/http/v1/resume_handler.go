package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ResumeHandler struct {
	resumeUC domain.ResumeUsecase
	secLog   *security.SecurityLogger
}

// ResumeResponse wraps a single profile.
type ResumeResponse struct {
	Resume *domain.Resume `json:"resume"`
}

// ResumeListResponse wraps a page of profiles.
type ResumeListResponse struct {
	Resumes []domain.Resume `json:"resumes"`
	Count   int             `json:"count"`
	Offset  int             `json:"offset"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewResumeHandler(public, protected *gin.RouterGroup, resumeUC domain.ResumeUsecase, secLog *security.SecurityLogger) {
	handler := &ResumeHandler{resumeUC: resumeUC, secLog: secLog}

	publicResumes := public.Group("/resumes")
	{
		publicResumes.GET("", handler.List)
		publicResumes.GET("/:id", handler.Get)
		publicResumes.GET("/:id/view", handler.Get)
	}

	protectedResumes := protected.Group("/resumes")
	{
		protectedResumes.POST("", handler.Create)
		protectedResumes.PUT("/:id", handler.Update)
		protectedResumes.DELETE("/:id", handler.Delete)
	}
}

// NewResumeExportHandler registers the admin spreadsheet export.
func NewResumeExportHandler(admin *gin.RouterGroup, resumeUC domain.ResumeUsecase) {
	handler := &ResumeHandler{resumeUC: resumeUC}
	admin.GET("/resumes/export", handler.Export)
}

// List godoc
// @Summary      List resumes
// @Description  Browse the directory, newest first. All filters are optional.
// @Tags         resumes
// @Produce      json
// @Param        user_id   query     string  false  "Owner account ID"
// @Param        q         query     string  false  "Free-text search over name, title and bio"
// @Param        location  query     string  false  "Location substring"
// @Param        skill     query     string  false  "Exact skill"
// @Param        limit     query     int     false  "Page size (default 50, max 100)"
// @Param        offset    query     int     false  "Rows to skip"
// @Success      200  {object}  ResumeListResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /resumes [get]
func (h *ResumeHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	resumes, err := h.resumeUC.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, ResumeListResponse{
		Resumes: resumes,
		Count:   len(resumes),
		Offset:  filter.Offset,
	})
}

// Get godoc
// @Summary      Get a resume
// @Description  Resolve a profile by slug, ID or name fragment and count a view
// @Tags         resumes
// @Produce      json
// @Param        id   path      string  true  "Slug, UUID or name fragment"
// @Success      200  {object}  ResumeResponse
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /resumes/{id} [get]
func (h *ResumeHandler) Get(c *gin.Context) {
	resume, err := h.resumeUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, ResumeResponse{Resume: resume})
}

// Create godoc
// @Summary      Create a resume
// @Description  Publish a new profile owned by the caller
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CreateResumeRequest  true  "Profile"
// @Success      201  {object}  ResumeResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      409  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /resumes [post]
// @Security     BearerAuth
func (h *ResumeHandler) Create(c *gin.Context) {
	var req domain.CreateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, err)
		return
	}

	resume, err := h.resumeUC.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, ResumeResponse{Resume: resume})
}

// Update godoc
// @Summary      Update a resume
// @Description  Change any subset of fields on a profile the caller owns
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Slug or UUID"
// @Param        request  body      domain.UpdateResumeRequest  true  "Fields to change"
// @Success      200  {object}  ResumeResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /resumes/{id} [put]
// @Security     BearerAuth
func (h *ResumeHandler) Update(c *gin.Context) {
	var req domain.UpdateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, err)
		return
	}

	resume, err := h.resumeUC.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, ResumeResponse{Resume: resume})
}

// Delete godoc
// @Summary      Delete a resume
// @Description  Permanently remove a profile the caller owns. Uploaded files are kept.
// @Tags         resumes
// @Produce      json
// @Param        id   path      string  true  "Slug or UUID"
// @Success      200  {object}  DeleteResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /resumes/{id} [delete]
// @Security     BearerAuth
func (h *ResumeHandler) Delete(c *gin.Context) {
	if err := h.resumeUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, DeleteResponse{Success: true, Message: "Resume deleted successfully"})
}

// Export godoc
// @Summary      Export resumes
// @Description  Download the filtered directory as an Excel workbook (admin only)
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        q         query     string  false  "Free-text search"
// @Param        location  query     string  false  "Location substring"
// @Param        skill     query     string  false  "Exact skill"
// @Param        limit     query     int     false  "Row cap (max 100)"
// @Success      200  {file}    binary
// @Failure      403  {object}  response.ErrorBody
// @Router       /admin/resumes/export [get]
// @Security     BearerAuth
func (h *ResumeHandler) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	data, filename, err := h.resumeUC.Export(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *ResumeHandler) invalidBody(c *gin.Context, err error) {
	h.secLog.LogValidationFailed(c.Request.Context(), c.ClientIP(), c.FullPath(), err.Error())
	c.Error(apperror.Validation("Invalid request body", err.Error()))
}

func parseFilter(c *gin.Context) (domain.ResumeFilter, error) {
	filter := domain.ResumeFilter{
		UserID:   c.Query("user_id"),
		Query:    c.Query("q"),
		Location: c.Query("location"),
		Skill:    c.Query("skill"),
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return filter, apperror.Validation("user_id must be a UUID", nil)
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperror.Validation("limit must be an integer", nil)
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, apperror.Validation("offset must be a non-negative integer", nil)
		}
		filter.Offset = offset
	}
	return filter, nil
}
