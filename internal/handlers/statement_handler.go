package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tskpay-backend/internal/services/reconciliation"
	"tskpay-backend/internal/storage"
)

type StatementHandler struct {
	service *reconciliation.Service
	store   storage.Store
}

func NewStatementHandler(s *reconciliation.Service, store storage.Store) *StatementHandler {
	return &StatementHandler{service: s, store: store}
}

// Upload receives a camt.052 XML file and imports it synchronously. Files
// are small (one day of club payments) so there is no background batch.
func (h *StatementHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	stmt, summary, err := h.service.ImportStatement(c.Request.Context(), header.Filename, raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statement": stmt, "summary": summary})
}

func (h *StatementHandler) List(c *gin.Context) {
	statements, err := h.store.Statements(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": statements})
}

func (h *StatementHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stmt, err := storage.FindStatement(c.Request.Context(), h.store, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statement": stmt})
}

func (h *StatementHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteStatement(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "statement deleted"})
}
