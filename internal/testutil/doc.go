// Package testutil contains small helpers shared by tests across packages.
// It is internal and carries no API stability guarantees.
package testutil
