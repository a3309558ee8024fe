package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// errorResponse is the stable JSON error envelope spec §7 requires: a
// code, a human message, and an opaque requestId correlating to audit
// entries.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// mapCoreError maps pkg/coreerr's taxonomy to an HTTP status, grounded on
// codeready-toolchain-tarsy/pkg/api/errors.go's mapServiceError, translated
// from echo's *echo.HTTPError into gin's status+JSON idiom.
func mapCoreError(err error) (int, errorResponse) {
	var ce *coreerr.Error
	requestID := ""
	code := "INTERNAL"
	message := "internal server error"
	status := http.StatusInternalServerError

	if errors.As(err, &ce) {
		requestID = ce.RequestID
		code = ce.Code
		message = ce.Message
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	switch {
	case errors.Is(err, coreerr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, coreerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, coreerr.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, coreerr.ErrAuthorization), errors.Is(err, coreerr.ErrToolNotPermitted):
		status = http.StatusForbidden
	case errors.Is(err, coreerr.ErrApprovalRequired):
		status = http.StatusPreconditionRequired
	case errors.Is(err, coreerr.ErrConflictingState):
		status = http.StatusConflict
	case errors.Is(err, coreerr.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, coreerr.ErrCircuitOpen), errors.Is(err, coreerr.ErrBackendUnavailable), errors.Is(err, coreerr.ErrGenerationUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, coreerr.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, coreerr.ErrPersistenceCorrupt), errors.Is(err, coreerr.ErrInternal):
		status = http.StatusInternalServerError
	default:
		if ce == nil {
			message = err.Error()
		}
	}

	return status, errorResponse{Code: code, Message: message, RequestID: requestID}
}

func writeCoreError(c *gin.Context, err error) {
	status, resp := mapCoreError(err)
	c.JSON(status, resp)
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Code: code, Message: message, RequestID: uuid.NewString()})
}
