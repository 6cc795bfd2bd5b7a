// Package fileutil provides filesystem helpers shared by the pipeline
// stages: sorted file matching, page-number parsing, bag extraction.
package fileutil
