// Package testutil runs an in-memory Redis (miniredis) as a test component.
package testutil
