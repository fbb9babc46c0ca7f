// Package identity owns the people who can sign in: the users table, their
// roles, signup and credential checks, and the /auth HTTP surface.
//
// An Identity is addressed by its email, which is also the subject of every
// token issued for it. Roles are loaded explicitly by the store after the
// identity row; nothing relies on ORM associations.
package identity
