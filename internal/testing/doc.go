// Package testing contains fixture and assertion helpers shared by the
// package tests.
package testing
