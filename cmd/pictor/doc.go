// Command pictor drives the derivative pipeline for digitized bags:
// stage execution, bag record management, manifest recreation, and
// environment checks.
package main
