package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/pkg/logging"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// AbortWithError responds like RespondError and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	RespondError(c, code, message)
	c.Abort()
}

// HandleServiceError maps service sentinel errors onto HTTP status codes.
func HandleServiceError(c *gin.Context, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().Err(err).Int("code", code).Msg("request failed")
	}
	RespondError(c, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Forbidden: insufficient access level"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrPromptMissing):
		return http.StatusBadRequest, "Image and prompt are required"
	case errors.Is(err, ErrExperienceNotFound):
		return http.StatusNotFound, "Experience not found"
	case errors.Is(err, ErrPlaceNotFound):
		return http.StatusNotFound, "Place not found"
	case errors.Is(err, ErrAddressNotFound):
		return http.StatusNotFound, "No results found for address"
	case errors.Is(err, ErrAlreadyAnnounced):
		return http.StatusConflict, "Place has already been announced"
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, ErrGeocoderUnavailable):
		return http.StatusServiceUnavailable, "Geocoding is not configured"
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrImageGeneration), errors.Is(err, ErrTimeout):
		return http.StatusBadGateway, "Upstream service error"
	case errors.Is(err, ErrDatabaseError):
		return http.StatusInternalServerError, "Internal server error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
