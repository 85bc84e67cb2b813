package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "pfa/internal/errors"
	"pfa/internal/middleware"
)

// parsePathID parses a positive integer path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
func parsePathID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseIndex parses a zero-based row index path parameter.
func parseIndex(c *gin.Context, param string) (int, error) {
	i, err := strconv.Atoi(c.Param(param))
	if err != nil || i < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return i, nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}
