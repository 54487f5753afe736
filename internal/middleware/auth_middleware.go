package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/certhub/certificates_api/internal/service"
	"github.com/certhub/certificates_api/internal/utils"
)

// AuthMiddleware enforces the authorization decision engine on every request
// that reached it through the identity middleware.
type AuthMiddleware struct {
	authorizer *service.AuthorizerService
}

// NewAuthMiddleware constructs a new AuthMiddleware.
func NewAuthMiddleware(authorizer *service.AuthorizerService) *AuthMiddleware {
	return &AuthMiddleware{authorizer: authorizer}
}

// Handle returns a Gin middleware function that evaluates the permission and
// ownership gates before the handler runs.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Caller must have been resolved by the identity middleware.
		caller := GetCaller(c)
		if caller == nil {
			utils.Error(c, 401, "Unauthorized")
			c.Abort()
			return
		}

		// 2. Evaluate both gates.
		itemID := c.Param("id")
		decision, err := m.authorizer.Authorize(caller, c.Request.Method, itemID)
		if err != nil {
			log.Error().Err(err).
				Str("request_id", utils.GetRequestID(c)).
				Msg("authorization check failed")
			utils.Error(c, 500, "Internal server error")
			c.Abort()
			return
		}

		// 3. Map the decision.
		switch decision {
		case service.DecisionAllowed:
			c.Next()
		case service.DecisionNotFound:
			utils.Error(c, 404, "Certificate item not found")
			c.Abort()
		default:
			log.Info().
				Str("request_id", utils.GetRequestID(c)).
				Str("identity", caller.Identity).
				Str("identity_type", string(caller.IdentityType)).
				Str("item_id", itemID).
				Msg("request denied")
			utils.Error(c, 401, "Unauthorized")
			c.Abort()
		}
	}
}
