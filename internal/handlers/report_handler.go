package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tskpay-backend/internal/services/reports"
	"tskpay-backend/internal/storage"
)

type ReportHandler struct {
	reports *reports.Service
	store   storage.Store
}

func NewReportHandler(r *reports.Service, store storage.Store) *ReportHandler {
	return &ReportHandler{reports: r, store: store}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	kpis, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *ReportHandler) MemberObligations(c *gin.Context) {
	items, err := h.reports.MemberObligations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReportHandler) GroupObligations(c *gin.Context) {
	items, err := h.reports.GroupObligations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReportHandler) Financial(c *gin.Context) {
	report, err := h.reports.Financial(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// OverdueExport returns the Slovenian dunning text, one section per parent
// with overdue costs, as a downloadable plain-text file.
func (h *ReportHandler) OverdueExport(c *gin.Context) {
	text, err := h.reports.OverdueStatements(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="opomini.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *ReportHandler) AuditLog(c *gin.Context) {
	entries, err := h.store.AuditLog(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}
