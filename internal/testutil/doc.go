// Package testutil provides shared test helpers for mcserver packages.
//
// [NewUpstream] serves a fake version manifest, per-version metadata and
// server jars over httptest, counting requests per path so tests can assert
// on memoization and idempotence.
//
// [FakeJava] writes a shell script that stands in for the java binary: it
// performs the first-run bootstrap when no server.properties exists and
// otherwise prints a readiness line after a configurable delay.
//
// [RequireClosed] wraps the select-with-timeout pattern for readiness
// channels.
//
// Helpers call t.Fatalf on setup failure rather than returning errors.
package testutil
