package container

import "unsafe"

func elemSize[T any]() uint64 {
	var z T
	return uint64(unsafe.Sizeof(z))
}

// Vector is a growable array bound to an Allocator. Growing doubles
// capacity, reserving the new backing region before queuing the old one
// for release — the same pattern the allocation log's squeeze uses for
// its own buffer swap.
type Vector[T any] struct {
	a      *Allocator
	offset uint64
	cap    uint64
	elems  []T
}

// NewVector creates an empty vector bound to a.
func NewVector[T any](a *Allocator) *Vector[T] {
	return &Vector[T]{a: a}
}

// Len returns the number of elements currently stored.
func (v *Vector[T]) Len() int { return len(v.elems) }

// At returns the element at index i.
func (v *Vector[T]) At(i int) T { return v.elems[i] }

// Set overwrites the element at index i.
func (v *Vector[T]) Set(i int, val T) { v.elems[i] = val }

// Append adds val to the end, growing the backing allocation first if
// the vector is at capacity.
func (v *Vector[T]) Append(val T) error {
	if uint64(len(v.elems)) == v.cap {
		if err := v.grow(); err != nil {
			return err
		}
	}
	v.elems = append(v.elems, val)
	return nil
}

func (v *Vector[T]) grow() error {
	newCap := v.cap*2 + 1
	size := elemSize[T]()
	newOffset, err := v.a.Allocate(newCap, size)
	if err != nil {
		return err
	}
	if v.offset != 0 {
		v.a.Deallocate(v.offset, size)
	}
	v.offset = newOffset
	v.cap = newCap
	return nil
}

// Free releases the vector's backing allocation.
func (v *Vector[T]) Free() {
	if v.offset != 0 {
		v.a.Deallocate(v.offset, elemSize[T]())
		v.offset = 0
		v.cap = 0
	}
	v.elems = nil
}
