// Package preflight runs startup environment checks: directory access,
// free space, and ArchivesSpace connectivity.
package preflight
