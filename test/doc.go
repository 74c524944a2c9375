// Package test provides infrastructure and utilities for end-to-end testing of TrustGig.
//
// A Suite wires the whole stack the way cmd/main.go does, with two substitutions:
// a sqlite database in a temporary directory instead of postgres, and a FixedClock
// instead of the wall clock so deadline scenarios can be driven from the test.
// The fiber app is served through httptest and reached with the real API client.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    alice := suite.ClientFor("0xalice")
//	    suite.Fund("0xalice", 100)
//	    id, err := alice.PostJob(suite.Context(), handlers.JobPostParams{Payment: 100, DurationDays: 3})
//	}
package test
