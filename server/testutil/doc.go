// Package testutil serves an http.Handler on a loopback httptest.Server
// managed as a test component, for tests that need a real socket.
package testutil
