// Package storage is the derivative store gateway. Derivatives live in a
// single S3 bucket keyed by category prefix; JP2 objects carry their
// pixel dimensions as object metadata so manifest rebuilds can avoid
// re-downloading images.
package storage
