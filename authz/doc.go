// Package authz decides which requests may proceed based on an ordered
// table of path rules.
//
// Each Rule pairs an Ant-style path pattern with an access level. The first
// rule whose pattern (and method, if set) matches the request decides;
// requests no rule matches are denied.
//
//	policy := authz.NewPolicy(
//	    authz.Permit("/auth/**"),
//	    authz.RequireRoles("/api/admin/**", "ROLE_ADMIN"),
//	    authz.Authenticated("/**"),
//	)
//
//	switch policy.Decide(ctx, http.MethodGet, "/api/clients") {
//	case authz.Allow:
//	case authz.Unauthenticated: // 401
//	case authz.Forbidden:       // 403
//	}
//
// The package only reads the principal from the request context (see
// auth/authctx); it keeps no session state.
package authz
