package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumekit/internal/admin"
	"resumekit/internal/api/middleware"
)

// AdminHandler 暴露受限的数据库表浏览器。
// 所有路由都在认证之后，且只接受白名单内的表名。
type AdminHandler struct {
	store *admin.Store
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(store *admin.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// ListTables 返回可浏览的表名。
func (h *AdminHandler) ListTables(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Tables())
}

// GetSchema 返回一张表的列结构。
func (h *AdminHandler) GetSchema(c *gin.Context) {
	columns, err := h.store.Schema(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err, "failed to read table schema")
		return
	}
	c.JSON(http.StatusOK, columns)
}

// ListRecords 返回一张表的全部行。
func (h *AdminHandler) ListRecords(c *gin.Context) {
	rows, err := h.store.Rows(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err, "failed to query table")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// InsertRecord 插入一行。
func (h *AdminHandler) InsertRecord(c *gin.Context) {
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id, err := h.store.Insert(c.Request.Context(), c.Param("name"), values)
	if err != nil {
		h.respondError(c, err, "failed to insert record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// UpdateRecord 按 id 更新一行。
func (h *AdminHandler) UpdateRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid record id")
		return
	}

	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.Update(c.Request.Context(), c.Param("name"), id, values); err != nil {
		h.respondError(c, err, "failed to update record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteRecord 按 id 删除一行。
func (h *AdminHandler) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid record id")
		return
	}

	if err := h.store.Delete(c.Request.Context(), c.Param("name"), id); err != nil {
		h.respondError(c, err, "failed to delete record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, admin.ErrTableNotAllowed):
		Forbidden(c, "table not allowed")
	case errors.Is(err, admin.ErrNotFound):
		NotFound(c, "record not found")
	case errors.Is(err, admin.ErrNoWritableColumns):
		BadRequest(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error(fallback, slog.Any("error", err))
		Internal(c, fallback)
	}
}
