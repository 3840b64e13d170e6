package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumekit/internal/api/middleware"
	"resumekit/internal/library"
	"resumekit/internal/metrics"
	"resumekit/internal/pdf"
	"resumekit/internal/render"
	"resumekit/internal/resume"
)

// htmlToPDF 便于测试时替换无头浏览器。
type htmlToPDF func(html string) ([]byte, error)

// ExportHandler 将简历聚合渲染为 HTML 并同步导出 PDF。
type ExportHandler struct {
	resumes  *resume.Store
	lib      *library.Store
	generate htmlToPDF
}

// NewExportHandler 构造 ExportHandler。
func NewExportHandler(resumes *resume.Store, lib *library.Store) *ExportHandler {
	return &ExportHandler{
		resumes:  resumes,
		lib:      lib,
		generate: pdf.GeneratePDFFromHTML,
	}
}

// ExportPDF 在请求内完成装配、渲染与打印，直接回传 PDF 字节。
func (h *ExportHandler) ExportPDF(c *gin.Context) {
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

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	view, err := h.resumes.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, resume.ErrNotFound) {
			NotFound(c, "resume not found")
			return
		}
		logger.Error("load resume for export failed", slog.Any("error", err))
		Internal(c, "failed to load resume")
		return
	}

	skills, err := h.lib.ListSkills(ctx, userID)
	if err != nil {
		logger.Error("load skills for export failed", slog.Any("error", err))
		Internal(c, "failed to load skills")
		return
	}
	skillNames := make(map[uint]string, len(skills))
	for _, s := range skills {
		skillNames[s.ID] = s.Name
	}

	html, err := render.Document(view, skillNames)
	if err != nil {
		logger.Error("render resume failed", slog.Any("error", err))
		Internal(c, "failed to render resume")
		return
	}

	start := time.Now()
	data, err := h.generate(html)
	if err != nil {
		logger.Error("pdf generation failed", slog.Any("error", err))
		Internal(c, "pdf generation failed")
		return
	}
	metrics.ObservePDFExport(time.Since(start))

	c.Header("Content-Disposition", `attachment; filename="resume.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
