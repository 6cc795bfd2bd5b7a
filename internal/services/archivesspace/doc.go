// Package archivesspace is a minimal client for the ArchivesSpace staff
// API: session login plus archival object retrieval.
package archivesspace
