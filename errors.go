package locus

import "fmt"

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// EntityNotFoundError reports an entity that is not stored where the caller
// expected it to be. Removing such an entity is a caller bug.
type EntityNotFoundError struct {
	ID EntityID
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity not found: %v", e.ID)
}

type BitVectorLengthError struct {
	Left, Right uint
}

func (e BitVectorLengthError) Error() string {
	return fmt.Sprintf("bit vector length mismatch: %d != %d", e.Left, e.Right)
}

// CapacityExhaustedError is raised when a fixed construction-time budget
// (sparse pages, entity indices, component types) runs out.
type CapacityExhaustedError struct {
	Resource string
	Limit    int
}

func (e CapacityExhaustedError) Error() string {
	return fmt.Sprintf("%s capacity exhausted (limit %d)", e.Resource, e.Limit)
}

type ComponentLayoutError struct {
	Type string
}

func (e ComponentLayoutError) Error() string {
	return fmt.Sprintf("component type %s contains pointers and cannot live in a byte column", e.Type)
}

type InitLayoutError struct {
	Expected, Actual int
}

func (e InitLayoutError) Error() string {
	return fmt.Sprintf("init bytes do not match group layout: expected %d bytes, got %d", e.Expected, e.Actual)
}

// mustHold panics with err when cond is false. Used for precondition
// violations only; these are never recovered.
func mustHold(cond bool, err error) {
	if !cond {
		panic(err)
	}
}
