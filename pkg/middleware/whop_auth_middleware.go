package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"placesmap/pkg/logging"
	"placesmap/pkg/utils"
	"placesmap/pkg/whop"
)

const (
	userIDKey      = "user_id"
	accessLevelKey = "access_level"
)

// UserTokenVerifier resolves the Whop user behind a request.
type UserTokenVerifier interface {
	VerifyRequest(r *http.Request) (string, error)
}

type AccessChecker interface {
	CheckAccess(ctx context.Context, userID, experienceID string) (whop.AccessLevel, error)
}

// WhopAuthMiddleware requires a valid Whop user token. A nil verifier rejects every request.
func WhopAuthMiddleware(verifier UserTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			utils.HandleServiceError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		userID, err := verifier.VerifyRequest(c.Request)
		if err != nil || userID == "" {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected whop user token")
			utils.HandleServiceError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// AccessMiddleware resolves the caller's access level to the :experienceId route param
// and rejects callers below required.
func AccessMiddleware(checker AccessChecker, required whop.AccessLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(userIDKey)
		if userID == "" {
			utils.HandleServiceError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		experienceID := c.Param("experienceId")
		level, err := checker.CheckAccess(c.Request.Context(), userID, experienceID)
		if err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Str("experience_id", experienceID).Msg("access check failed")
			utils.HandleServiceError(c, utils.ErrUpstream)
			c.Abort()
			return
		}

		if !satisfies(level, required) {
			utils.HandleServiceError(c, utils.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(accessLevelKey, string(level))
		c.Next()
	}
}

func satisfies(level, required whop.AccessLevel) bool {
	switch required {
	case whop.AccessAdmin:
		return level == whop.AccessAdmin
	default:
		return level == whop.AccessAdmin || level == whop.AccessCustomer
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func AccessLevel(c *gin.Context) whop.AccessLevel {
	return whop.AccessLevel(c.GetString(accessLevelKey))
}
