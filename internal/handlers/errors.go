// Package handler exposes the HTTP surface over gin.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
)

// writeError maps engine errors onto HTTP statuses. Format errors are the
// client's fault, schema and mismatch errors are recoverable validation
// failures, missing records are 404.
func writeError(c *gin.Context, err error) {
	var (
		formatErr   *apperr.FormatError
		schemaErr   *apperr.SchemaError
		mismatchErr *apperr.MismatchError
		dupErr      *apperr.DuplicateError
	)
	switch {
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &mismatchErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"diff":  mismatchErr.Diff(),
			"over":  mismatchErr.Over(),
		})
	case errors.As(err, &dupErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
