// Package description looks up published object records in the public
// description API, used when manifests are rebuilt for bags whose
// database rows have been lost.
package description
