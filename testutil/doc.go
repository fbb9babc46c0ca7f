// Package testutil runs infrastructure components inside tests.
//
// A TestComponent is a component.Component that can also be reset between
// test cases. Resource turns any open/close pair into one:
//
//	db := dbtest.NewComponent(t.TempDir())
//	testutil.T(t).Setup(db) // stopped by t.Cleanup
//	...
//	testutil.T(t).Reset(db)
package testutil
