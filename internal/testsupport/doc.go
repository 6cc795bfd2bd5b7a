// Package testsupport provides shared helpers for tests: temp-dir
// configs, bag stores with automatic cleanup, and tiny TIFF/JP2 fixture
// writers.
package testsupport
