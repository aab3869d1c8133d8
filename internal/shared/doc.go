// Package shared groups helpers used across packages that belong to no
// single layer. Its testutil subpackage captures slog output and writes
// input fixtures for tests.
package shared
