package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumekit/internal/api/middleware"
	"resumekit/internal/library"
	"resumekit/internal/resume"
)

var errInvalidID = errors.New("invalid id")

// ResumeHandler 负责处理与简历聚合相关的 API 请求。
type ResumeHandler struct {
	resumes *resume.Store
	lib     *library.Store
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(resumes *resume.Store, lib *library.Store) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, lib: lib}
}

// ListResumes 列出用户全部简历摘要。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	summaries, err := h.resumes.List(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "failed to list resumes")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetResume 返回完整的简历聚合视图。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	view, err := h.resumes.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondStoreError(c, err, "failed to load resume")
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateResume 创建简历聚合；分区元素可以是库实体 ID，也可以是内联对象。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var payload resume.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, err.Error())
		return
	}

	view, err := h.resumes.Create(c.Request.Context(), userID, payload)
	if err != nil {
		h.respondStoreError(c, err, "failed to create resume")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateResume 覆盖基础行，并整体替换载荷中出现的关联分区。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	var payload resume.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, err.Error())
		return
	}

	view, err := h.resumes.Update(c.Request.Context(), userID, id, payload)
	if err != nil {
		h.respondStoreError(c, err, "failed to update resume")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteResume 删除简历；库实体不受影响。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	if err := h.resumes.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondStoreError(c, err, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) respondStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, resume.ErrNotFound):
		NotFound(c, "resume not found")
	case errors.Is(err, resume.ErrMalformedInline),
		errors.Is(err, resume.ErrUnknownEntity),
		errors.Is(err, resume.ErrMissingField),
		errors.Is(err, library.ErrMissingField),
		errors.Is(err, library.ErrInvalidField):
		BadRequest(c, err.Error())
	case errors.Is(err, library.ErrDuplicateName):
		Conflict(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error(fallback, slog.Any("error", err))
		Internal(c, fallback)
	}
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
