// Package bags persists the bag records driving the derivative pipeline.
// A bag's status is a closed, totally ordered enumeration; stages move it
// strictly forward, or back to the pre-claim value on failure.
package bags
