package identity

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kbukum/invoicer/auth"
	"github.com/kbukum/invoicer/auth/authctx"
	"github.com/kbukum/invoicer/auth/password"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/observability"
	"github.com/kbukum/invoicer/validation"
)

// Login attempt outcomes passed to Recorder.LoginAttempt.
const (
	LoginSucceeded = "success"
	LoginFailed    = "failure"
)

// dummyPassword feeds the comparison performed for unknown emails.
const dummyPassword = "invoicer-timing-equalizer"

// fallbackDummyHash is a well-formed bcrypt hash (cost 10) compared against
// when the configured hasher cannot produce one for dummyPassword.
const fallbackDummyHash = "$2a$10$abcdefghijklmnopqrstuuO0123456789ABCDEFGHIJKLMNOPQRST"

// Recorder receives authentication events, typically to count them.
type Recorder interface {
	LoginAttempt(ctx context.Context, outcome string)
	SignupCompleted(ctx context.Context)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(context.Context, string) {}
func (nopRecorder) SignupCompleted(context.Context)      {}

// Service is the authenticator: signup, credential checks and lookups.
type Service struct {
	store       Store
	hasher      password.Hasher
	defaultRole string
	recorder    Recorder
	log         *logger.Logger
	dummyHash   string
}

var _ auth.PrincipalLoader = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithDefaultRole sets the role granted on signup.
func WithDefaultRole(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultRole = name
		}
	}
}

// WithRecorder sets the receiver of login and signup events.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.WithComponent("identity")
		}
	}
}

// NewService creates the authenticator.
func NewService(store Store, hasher password.Hasher, opts ...Option) *Service {
	s := &Service{
		store:       store,
		hasher:      hasher,
		defaultRole: auth.DefaultRole,
		recorder:    nopRecorder{},
		log:         logger.WithComponent("identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash = s.timingHash()
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new identity with the default role.
func (s *Service) Signup(ctx context.Context, reg Registration) (_ *Identity, err error) {
	ctx, span := observability.StartSpan(ctx, "identity.signup")
	defer func() {
		observability.SetSpanError(span, err)
		span.End()
	}()

	reg.Email = normalizeEmail(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if err := validation.Validate(reg); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.DuplicateEmail()
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, hashError(err)
	}

	var roles []Role
	role, err := s.store.FindRole(ctx, s.defaultRole)
	switch {
	case err == nil:
		roles = append(roles, *role)
	case errors.HasCode(err, errors.ErrCodeNotFound):
		s.log.WithContext(ctx).Warn("Default role missing, identity created without roles",
			logger.Fields("role", s.defaultRole))
	default:
		return nil, err
	}

	identity := &Identity{
		Name:         reg.Name,
		LastName:     strings.TrimSpace(reg.LastName),
		Username:     strings.TrimSpace(reg.Username),
		Email:        reg.Email,
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, identity, roles); err != nil {
		return nil, err
	}
	identity.Roles = roles
	if identity.Roles == nil {
		identity.Roles = []Role{}
	}

	s.recorder.SignupCompleted(ctx)
	s.log.WithContext(ctx).Info("Identity registered", logger.Fields(
		logger.FieldUserID, identity.ID,
		logger.FieldEmail, identity.Email,
	))
	return identity, nil
}

func hashError(err error) error {
	switch {
	case stderrors.Is(err, password.ErrTooShort):
		return errors.InvalidInput("password", "password is too short")
	case stderrors.Is(err, password.ErrTooLong):
		return errors.InvalidInput("password", "password is too long")
	default:
		return errors.Internal(fmt.Errorf("hash password: %w", err))
	}
}

// Authenticate checks credentials. An unknown email and a wrong password
// produce the same AUTHENTICATION_FAILED error, and both pay for one hash
// comparison.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (_ *Identity, err error) {
	ctx, span := observability.StartSpan(ctx, "identity.authenticate")
	defer func() {
		observability.SetSpanError(span, err)
		span.End()
	}()

	identity, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeUserNotFound) {
			return nil, err
		}
		_ = s.hasher.Verify(plain, s.dummyHash)
		return nil, s.loginFailed(ctx)
	}

	if err := s.hasher.Verify(plain, identity.PasswordHash); err != nil {
		if !stderrors.Is(err, password.ErrMismatch) {
			s.log.WithContext(ctx).Error("Stored password hash unusable", logger.Fields(
				logger.FieldUserID, identity.ID,
				logger.FieldError, err.Error(),
			))
		}
		return nil, s.loginFailed(ctx)
	}

	s.recorder.LoginAttempt(ctx, LoginSucceeded)
	return identity, nil
}

func (s *Service) loginFailed(ctx context.Context) error {
	s.recorder.LoginAttempt(ctx, LoginFailed)
	return errors.AuthenticationFailed()
}

// timingHash hashes dummyPassword with the configured hasher so unknown
// emails cost the same as a wrong password.
func (s *Service) timingHash() string {
	hash, err := s.hasher.Hash(dummyPassword)
	if err != nil || hash == "" {
		s.log.Warn("Timing hash unavailable, using bcrypt fallback", logger.Fields(logger.FieldError, fmt.Sprint(err)))
		return fallbackDummyHash
	}
	return hash
}

// FindByEmail returns the identity with its roles, or USER_NOT_FOUND (404).
func (s *Service) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return s.store.FindByEmail(ctx, normalizeEmail(email))
}

// LoadPrincipal resolves a token subject for the request gate.
func (s *Service) LoadPrincipal(ctx context.Context, subject string) (authctx.Principal, error) {
	identity, err := s.store.FindByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	return identity, nil
}
