package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/certhub/certificates_api/internal/models"
	"github.com/certhub/certificates_api/internal/utils"
)

// Identity headers set by the upstream gateway. Identity and identity-type
// are mandatory; the roles header may be blank.
const (
	HeaderIdentity     = "X-Identity"
	HeaderIdentityType = "X-Identity-Type"
	HeaderGrantedRoles = "X-Granted-Roles"
)

// IdentityMiddleware resolves the caller identity from the transport headers
// and places a fresh Caller into the request context. Requests without an
// identity or identity-type cannot proceed.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetHeader(HeaderIdentity)
		if identity == "" {
			utils.Error(c, 401, "Missing identity header")
			c.Abort()
			return
		}

		identityType := c.GetHeader(HeaderIdentityType)
		if identityType == "" {
			utils.Error(c, 401, "Missing identity type header")
			c.Abort()
			return
		}

		caller := &models.Caller{
			Identity:     identity,
			IdentityType: models.IdentityType(identityType),
			Roles:        models.ParseRoles(c.GetHeader(HeaderGrantedRoles)),
		}

		c.Set("caller", caller)
		c.Set("identity", identity) // for the request log line

		c.Next()
	}
}

// GetCaller returns the resolved caller from context.
func GetCaller(c *gin.Context) *models.Caller {
	caller, _ := c.Get("caller")
	if caller == nil {
		return nil
	}
	return caller.(*models.Caller)
}
