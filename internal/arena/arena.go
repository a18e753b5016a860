// Package arena implements a bump allocator with bucketed growth.
//
// Rollouts allocate node shells, grids and candidate pools here; when the
// rollout finishes the whole lot is reclaimed by Reset, which only rewinds
// the bump pointer of each bucket. Single allocations are never freed.
//
// Everything stored in arena memory must only reference either other arena
// allocations or objects that outlive the arena user: the buckets are plain
// byte slices and the garbage collector does not scan them for pointers.
package arena

import (
	"unsafe"

	"github.com/gomlx/exceptions"
)

// DefaultBucketSize is the size of each bucket in bytes.
const DefaultBucketSize = 10_000_000

// headerSize is the per-allocation size header, one machine word. It sits
// right before the returned memory and is what makes Realloc possible.
const headerSize = int(unsafe.Sizeof(uintptr(0)))

// align rounds n up to the machine-word boundary.
func align(n int) int {
	return (n + headerSize - 1) &^ (headerSize - 1)
}

type bucket struct {
	data  []byte
	point int
}

// request returns a pointer to n bytes (n already aligned) preceded by a size
// header, or nil if the bucket has no room.
func (b *bucket) request(n int) unsafe.Pointer {
	total := n + headerSize
	if len(b.data)-b.point < total {
		return nil
	}
	p := unsafe.Pointer(&b.data[b.point])
	*(*uintptr)(p) = uintptr(n)
	b.point += total
	return unsafe.Add(p, headerSize)
}

// Arena is a list of fixed-size buckets with a bump pointer each.
// The zero value is not usable; see New.
type Arena struct {
	buckets    []bucket
	point      int // index of the first bucket worth trying
	bucketSize int
}

// New returns an arena with a single bucket of DefaultBucketSize.
func New() *Arena {
	return NewWithBucketSize(DefaultBucketSize)
}

// NewWithBucketSize returns an arena whose buckets hold bucketSize bytes each.
func NewWithBucketSize(bucketSize int) *Arena {
	if bucketSize <= headerSize {
		exceptions.Panicf("arena: bucket size %d is too small", bucketSize)
	}
	a := &Arena{bucketSize: bucketSize}
	a.buckets = append(a.buckets, bucket{data: make([]byte, bucketSize)})
	return a
}

// Alloc returns n zeroed bytes of arena memory, aligned to the machine word.
// If no bucket has room a new one is created.
func (a *Arena) Alloc(n int) unsafe.Pointer {
	if n < 0 {
		exceptions.Panicf("arena: negative allocation size %d", n)
	}
	n = align(n)
	if n+headerSize > a.bucketSize {
		exceptions.Panicf("arena: allocation of %d bytes exceeds the bucket size %d", n, a.bucketSize)
	}
	for a.point < len(a.buckets) {
		if p := a.buckets[a.point].request(n); p != nil {
			clearBytes(p, n)
			return p
		}
		a.point++
	}
	a.buckets = append(a.buckets, bucket{data: make([]byte, a.bucketSize)})
	p := a.buckets[len(a.buckets)-1].request(n)
	// Fresh buckets are zeroed by make; no clear needed.
	return p
}

// Realloc returns a new allocation of n bytes with the old content copied
// over. The old allocation is abandoned in place.
func (a *Arena) Realloc(p unsafe.Pointer, n int) unsafe.Pointer {
	if p == nil {
		return a.Alloc(n)
	}
	oldSize := a.sizeOf(p)
	q := a.Alloc(n)
	copy(unsafe.Slice((*byte)(q), n), unsafe.Slice((*byte)(p), min(oldSize, n)))
	return q
}

// sizeOf reads the size header of an arena allocation.
func (a *Arena) sizeOf(p unsafe.Pointer) int {
	return int(*(*uintptr)(unsafe.Add(p, -headerSize)))
}

// Reset rewinds every bucket's bump pointer. O(number of buckets); the
// memory itself is retained for reuse.
func (a *Arena) Reset() {
	a.point = 0
	for i := range a.buckets {
		a.buckets[i].point = 0
	}
}

// Used returns the number of bytes currently allocated, headers included.
func (a *Arena) Used() int {
	used := 0
	for i := range a.buckets {
		used += a.buckets[i].point
	}
	return used
}

// Buckets returns how many buckets the arena has grown to.
func (a *Arena) Buckets() int { return len(a.buckets) }

func clearBytes(p unsafe.Pointer, n int) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}

// AllocOf returns a zeroed *T in arena memory.
func AllocOf[T any](a *Arena) *T {
	var t T
	return (*T)(a.Alloc(int(unsafe.Sizeof(t))))
}

// MakeSlice returns a []T of the given length and capacity backed by arena
// memory. Appends stay in place up to the capacity; growing beyond it would
// escape the arena, so callers size the capacity to a known bound.
func MakeSlice[T any](a *Arena, length, capacity int) []T {
	if length > capacity {
		exceptions.Panicf("arena: slice length %d exceeds capacity %d", length, capacity)
	}
	if capacity == 0 {
		return nil
	}
	var t T
	p := a.Alloc(capacity * int(unsafe.Sizeof(t)))
	return unsafe.Slice((*T)(p), capacity)[:length]
}
