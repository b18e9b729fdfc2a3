// Package domain holds the core model types and ports of the console runtime.
// It has no dependencies on infrastructure packages; everything here is plain
// data plus small pure helpers.
package domain
