// Package routine implements the generic stage engine: claim exactly one
// eligible bag, execute the stage transform, advance the status on
// success or snap it back to the pre-claim value on failure. The
// in-progress marker is the sole concurrency guard between overlapping
// invocations of the same stage.
package routine
