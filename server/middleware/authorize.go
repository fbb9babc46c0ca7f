package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/authz"
	"github.com/kbukum/invoicer/errors"
)

// Authorize returns a Gin middleware that enforces policy on every request.
// It must run after Authenticate so the principal, if any, is in the request
// context. Unauthenticated requests to protected paths get 401 UNAUTHORIZED;
// principals lacking a required role get 403 FORBIDDEN.
func Authorize(policy *authz.Policy, opts ...GateOption) gin.HandlerFunc {
	o := newGateOptions(opts)
	return func(c *gin.Context) {
		switch policy.Decide(c.Request.Context(), c.Request.Method, c.Request.URL.Path) {
		case authz.Allow:
			c.Next()
		case authz.Unauthenticated:
			o.onError(c, errors.Unauthorized("Full authentication is required to access this resource"))
			c.Abort()
		default:
			o.onError(c, errors.Forbidden("Access is denied"))
			c.Abort()
		}
	}
}
