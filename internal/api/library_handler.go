package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumekit/internal/api/middleware"
	"resumekit/internal/library"
)

// LibraryHandler 负责处理库实体（技能、分类、经历、教育、项目、联系方式、社交链接）的 CRUD。
type LibraryHandler struct {
	lib *library.Store
}

// NewLibraryHandler 构造 LibraryHandler。
func NewLibraryHandler(lib *library.Store) *LibraryHandler {
	return &LibraryHandler{lib: lib}
}

// ListSkills 返回技能列表，按分类、名称排序。
func (h *LibraryHandler) ListSkills(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	skills, err := h.lib.ListSkills(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list skills")
		return
	}
	c.JSON(http.StatusOK, skills)
}

// CreateSkill 创建技能；同名技能返回已有行（幂等）。
func (h *LibraryHandler) CreateSkill(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.SkillInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	skill, err := h.lib.CreateSkill(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create skill")
		return
	}
	c.JSON(http.StatusCreated, skill)
}

// UpdateSkill 更新技能名称与分类。
func (h *LibraryHandler) UpdateSkill(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid skill id")
		return
	}

	var in library.SkillInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	skill, err := h.lib.UpdateSkill(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update skill")
		return
	}
	c.JSON(http.StatusOK, skill)
}

// DeleteSkill 删除技能；引用它的简历关联行级联清除。
func (h *LibraryHandler) DeleteSkill(c *gin.Context) {
	h.deleteEntity(c, "invalid skill id", "failed to delete skill", h.lib.DeleteSkill)
}

// ListCategories 返回技能分类，按显示顺序排序。
func (h *LibraryHandler) ListCategories(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	categories, err := h.lib.ListCategories(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list skill categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory 创建技能分类。
func (h *LibraryHandler) CreateCategory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	category, err := h.lib.CreateCategory(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create skill category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory 更新技能分类。
func (h *LibraryHandler) UpdateCategory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid category id")
		return
	}

	var in library.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	category, err := h.lib.UpdateCategory(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update skill category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory 删除分类；引用它的技能 category_id 被置空。
func (h *LibraryHandler) DeleteCategory(c *gin.Context) {
	h.deleteEntity(c, "invalid category id", "failed to delete skill category", h.lib.DeleteCategory)
}

// ListExperiences 返回工作经历，新建的在前。
func (h *LibraryHandler) ListExperiences(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	exps, err := h.lib.ListExperiences(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list experiences")
		return
	}
	c.JSON(http.StatusOK, exps)
}

// CreateExperience 创建工作经历。
func (h *LibraryHandler) CreateExperience(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.ExperienceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	exp, err := h.lib.CreateExperience(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create experience")
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// UpdateExperience 覆盖一条工作经历。
func (h *LibraryHandler) UpdateExperience(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid experience id")
		return
	}

	var in library.ExperienceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	exp, err := h.lib.UpdateExperience(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update experience")
		return
	}
	c.JSON(http.StatusOK, exp)
}

// DeleteExperience 删除工作经历。
func (h *LibraryHandler) DeleteExperience(c *gin.Context) {
	h.deleteEntity(c, "invalid experience id", "failed to delete experience", h.lib.DeleteExperience)
}

// ListEducation 返回教育经历，新建的在前。
func (h *LibraryHandler) ListEducation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	edus, err := h.lib.ListEducation(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list education")
		return
	}
	c.JSON(http.StatusOK, edus)
}

// CreateEducation 创建教育经历。
func (h *LibraryHandler) CreateEducation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.EducationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	edu, err := h.lib.CreateEducation(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create education")
		return
	}
	c.JSON(http.StatusCreated, edu)
}

// DeleteEducation 删除教育经历。
func (h *LibraryHandler) DeleteEducation(c *gin.Context) {
	h.deleteEntity(c, "invalid education id", "failed to delete education", h.lib.DeleteEducation)
}

// ListProjects 返回项目，新建的在前。
func (h *LibraryHandler) ListProjects(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	projects, err := h.lib.ListProjects(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject 创建项目。
func (h *LibraryHandler) CreateProject(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	project, err := h.lib.CreateProject(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject 覆盖一个项目。
func (h *LibraryHandler) UpdateProject(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid project id")
		return
	}

	var in library.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	project, err := h.lib.UpdateProject(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update project")
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject 删除项目。
func (h *LibraryHandler) DeleteProject(c *gin.Context) {
	h.deleteEntity(c, "invalid project id", "failed to delete project", h.lib.DeleteProject)
}

// ListContacts 返回联系方式，新建的在前。
func (h *LibraryHandler) ListContacts(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	contacts, err := h.lib.ListContacts(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list contacts")
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// CreateContact 创建联系方式。
func (h *LibraryHandler) CreateContact(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	contact, err := h.lib.CreateContact(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// UpdateContact 覆盖一条联系方式。
func (h *LibraryHandler) UpdateContact(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid contact id")
		return
	}

	var in library.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	contact, err := h.lib.UpdateContact(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}

// DeleteContact 删除联系方式；简历中的快照不受影响。
func (h *LibraryHandler) DeleteContact(c *gin.Context) {
	h.deleteEntity(c, "invalid contact id", "failed to delete contact", h.lib.DeleteContact)
}

// ListSocials 返回社交链接，新建的在前。
func (h *LibraryHandler) ListSocials(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	socials, err := h.lib.ListSocials(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to list socials")
		return
	}
	c.JSON(http.StatusOK, socials)
}

// CreateSocial 创建社交链接。
func (h *LibraryHandler) CreateSocial(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in library.SocialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}

	social, err := h.lib.CreateSocial(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create social")
		return
	}
	c.JSON(http.StatusCreated, social)
}

// DeleteSocial 删除社交链接；简历中的快照不受影响。
func (h *LibraryHandler) DeleteSocial(c *gin.Context) {
	h.deleteEntity(c, "invalid social id", "failed to delete social", h.lib.DeleteSocial)
}

type deleteFunc func(ctx context.Context, userID, id uint) error

func (h *LibraryHandler) deleteEntity(c *gin.Context, invalidMsg, fallback string, del deleteFunc) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, invalidMsg)
		return
	}

	if err := del(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, fallback)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LibraryHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		NotFound(c, "entity not found")
	case errors.Is(err, library.ErrMissingField), errors.Is(err, library.ErrInvalidField):
		BadRequest(c, err.Error())
	case errors.Is(err, library.ErrDuplicateName):
		Conflict(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error(fallback, slog.Any("error", err))
		Internal(c, fallback)
	}
}
