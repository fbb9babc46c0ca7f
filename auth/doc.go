// Package auth provides the authentication building blocks of the service.
//
// Subpackages:
//
//   - auth/jwt      : HS256 token codec (issue, decode subject, validate)
//   - auth/password : Password hashing (bcrypt, argon2id)
//   - auth/authctx  : Request context propagation for the authenticated principal
//
// The top-level package provides the shared contracts the request gate and the
// identity service depend on:
//
//   - TokenCodec      : issues and checks bearer tokens
//   - PrincipalLoader : resolves a token subject to a principal
//   - Config          : composed configuration for jwt and password hashing
//
// Configuration:
//
//	auth:
//	  default_role: ROLE_USER
//	  jwt:
//	    secret: "${AUTH_JWT_SECRET}"
//	    access_token_ttl: "1h"
//	  password:
//	    algorithm: "bcrypt"
//	    bcrypt_cost: 10
package auth
