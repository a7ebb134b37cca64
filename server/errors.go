package server

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/vitalvas/narsign/fingerprint"
	"github.com/vitalvas/narsign/narhash"
	"github.com/vitalvas/narsign/nixbase32"
	"github.com/vitalvas/narsign/service"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var invalidInput = []error{
	errEmptyStorePath,
	narhash.ErrUnsupportedAlgorithm,
	narhash.ErrMalformedHash,
	narhash.ErrInvalidDigest,
	nixbase32.ErrInvalidCharacter,
	nixbase32.ErrCorruptInput,
	fingerprint.ErrInvalidPathInfo,
}

func isInvalidInput(err error) bool {
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// writeError maps err onto a status code. Internal details are logged, not
// returned.
func (s *Server) writeError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, service.ErrMissingArtifact):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "store path not found")

	case errors.As(err, &tooLarge):
		writeErrorCode(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")

	case isInvalidInput(err):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid argument")

	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}

	s.logger.Error("request failed",
		zap.String("request_id", requestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Error(err),
	)
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}
