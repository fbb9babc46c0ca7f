package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/invoicer/auth/authctx"
)

// Access is the level of authentication a rule demands.
type Access int

const (
	// AccessPermit lets any request through.
	AccessPermit Access = iota
	// AccessAuthenticated requires a principal in the request context.
	AccessAuthenticated
	// AccessDeny rejects every request.
	AccessDeny
)

func (a Access) String() string {
	switch a {
	case AccessPermit:
		return "permitAll"
	case AccessAuthenticated:
		return "authenticated"
	case AccessDeny:
		return "denyAll"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// Decision is the outcome of evaluating a policy for one request.
type Decision int

const (
	// Allow lets the request proceed.
	Allow Decision = iota
	// Unauthenticated means the rule needs a principal and none is present.
	Unauthenticated
	// Forbidden means a principal is present but lacks a required role,
	// or the rule denies everything.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Rule binds a path pattern to an access level.
type Rule struct {
	// Pattern is an Ant-style path pattern (see MatchPath).
	Pattern string
	// Methods restricts the rule to these HTTP methods. Empty matches all.
	Methods []string
	// Access is the authentication the rule demands.
	Access Access
	// Roles, when set, requires the principal to hold at least one of them.
	Roles []string
}

// Permit returns a rule that lets any request to pattern through.
func Permit(pattern string, methods ...string) Rule {
	return Rule{Pattern: pattern, Methods: methods, Access: AccessPermit}
}

// Authenticated returns a rule that requires a principal for pattern.
func Authenticated(pattern string, methods ...string) Rule {
	return Rule{Pattern: pattern, Methods: methods, Access: AccessAuthenticated}
}

// RequireRoles returns a rule that requires a principal holding any of roles.
func RequireRoles(pattern string, roles ...string) Rule {
	return Rule{Pattern: pattern, Access: AccessAuthenticated, Roles: roles}
}

// Deny returns a rule that rejects every request to pattern.
func Deny(pattern string) Rule {
	return Rule{Pattern: pattern, Access: AccessDeny}
}

func (r Rule) matches(method, path string) bool {
	if len(r.Methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return MatchPath(r.Pattern, path)
}

func (r Rule) String() string {
	s := r.Pattern + " -> " + r.Access.String()
	if len(r.Methods) > 0 {
		s = strings.Join(r.Methods, ",") + " " + s
	}
	if len(r.Roles) > 0 {
		s += " " + strings.Join(r.Roles, "|")
	}
	return s
}

// Policy is an ordered rule table. The first matching rule decides.
// A Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	rules []Rule
}

// NewPolicy creates a Policy evaluating rules in the given order.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: append([]Rule(nil), rules...)}
}

// DefaultPolicy is the service's rule table: authentication and operational
// endpoints are public, everything else requires a principal.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Permit("/auth/**"),
		Permit("/health"),
		Permit("/livez"),
		Permit("/readyz"),
		Permit("/info"),
		Authenticated("/**"),
	)
}

// Match returns the first rule matching method and path.
func (p *Policy) Match(method, path string) (Rule, bool) {
	for _, r := range p.rules {
		if r.matches(method, path) {
			return r, true
		}
	}
	return Rule{}, false
}

// Decide evaluates the policy for a request. The principal, if any, is read
// from ctx. Paths no rule matches are forbidden.
func (p *Policy) Decide(ctx context.Context, method, path string) Decision {
	rule, ok := p.Match(method, path)
	if !ok {
		return Forbidden
	}
	switch rule.Access {
	case AccessPermit:
		return Allow
	case AccessDeny:
		return Forbidden
	}
	if !authctx.IsAuthenticated(ctx) {
		return Unauthenticated
	}
	if len(rule.Roles) > 0 && !authctx.HasAuthority(ctx, rule.Roles...) {
		return Forbidden
	}
	return Allow
}
