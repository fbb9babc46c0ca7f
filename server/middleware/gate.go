package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/auth"
	"github.com/kbukum/invoicer/auth/authctx"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

const bearerPrefix = "Bearer "

// Gate outcomes reported to the OutcomeHook.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
	OutcomeUnaccepted    = "unaccepted"
)

// ErrorHandler writes an error response and aborts the Gin chain.
type ErrorHandler func(c *gin.Context, err error)

// OutcomeHook observes how the gate handled a request.
type OutcomeHook func(ctx context.Context, outcome string)

type gateOptions struct {
	onError   ErrorHandler
	onOutcome OutcomeHook
	log       *logger.Logger
}

// GateOption configures Authenticate and Authorize.
type GateOption func(*gateOptions)

// WithErrorHandler routes gate and policy errors through h, typically
// server.Fail.
func WithErrorHandler(h ErrorHandler) GateOption {
	return func(o *gateOptions) { o.onError = h }
}

// WithOutcomeHook reports every gate decision to h.
func WithOutcomeHook(h OutcomeHook) GateOption {
	return func(o *gateOptions) { o.onOutcome = h }
}

// WithGateLogger overrides the logger used by the gate.
func WithGateLogger(log *logger.Logger) GateOption {
	return func(o *gateOptions) { o.log = log }
}

func newGateOptions(opts []GateOption) *gateOptions {
	o := &gateOptions{
		onError:   abortWithError,
		onOutcome: func(context.Context, string) {},
		log:       logger.WithComponent("auth-gate"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Authenticate returns the bearer-token request gate.
//
//   - no Authorization header, or one without the "Bearer " prefix: pass through
//   - request context already authenticated: pass through
//   - token fails to decode: error handler responds, chain aborted
//   - subject fails to load: error handler responds, chain aborted
//   - token expired or issued for another subject: pass through unauthenticated
//   - otherwise the principal is stored in the request context
//
// The gate never rejects a request merely for lacking a usable token; that is
// left to Authorize.
func Authenticate(codec auth.TokenCodec, loader auth.PrincipalLoader, opts ...GateOption) gin.HandlerFunc {
	o := newGateOptions(opts)
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			o.onOutcome(ctx, OutcomeAnonymous)
			c.Next()
			return
		}
		if authctx.IsAuthenticated(ctx) {
			c.Next()
			return
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		subject, err := codec.DecodeSubject(token)
		if err != nil {
			o.log.WithContext(ctx).Debug("Bearer token rejected", logger.Fields(logger.FieldError, err.Error()))
			o.onOutcome(ctx, OutcomeRejected)
			o.onError(c, errors.InvalidToken().WithCause(err))
			c.Abort()
			return
		}

		principal, err := loader.LoadPrincipal(ctx, subject)
		if err != nil {
			o.onOutcome(ctx, OutcomeRejected)
			o.onError(c, loadError(err))
			c.Abort()
			return
		}

		ok, err := codec.IsValid(token, principal.Subject())
		if err != nil || !ok {
			o.onOutcome(ctx, OutcomeUnaccepted)
			c.Next()
			return
		}

		ctx = authctx.Set(ctx, principal)
		ctx = logger.ContextWithUserID(ctx, principal.Subject())
		c.Request = c.Request.WithContext(ctx)
		o.onOutcome(ctx, OutcomeAuthenticated)
		c.Next()
	}
}

// loadError maps a principal lookup failure to the gate's error taxonomy.
func loadError(err error) error {
	if errors.HasCode(err, errors.ErrCodeUserNotFound) || errors.HasCode(err, errors.ErrCodeNotFound) {
		return errors.UserNotFound(http.StatusUnauthorized).WithCause(err)
	}
	return errors.Wrap(err)
}

func abortWithError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
