package warehouse

import (
	"reflect"
	"unsafe"
)

// BlobVec is a type-erased, contiguous, growable vector parameterized by a
// DataLayout. All accessors are unchecked by design (spec.md §4.3); bounds
// and aliasing safety are the Table/Column layer's responsibility.
//
// The backing store is a reflect-allocated array when the layout carries a
// Go type token (grounded on mlange-42/arche's ecs/storage.go), and a raw
// byte buffer otherwise (anonymous/scripting kinds with no Go type).
type BlobVec struct {
	layout   DataLayout
	buffer   reflect.Value // valid when layout.GoType != nil
	raw      []byte        // valid when layout.GoType == nil
	base     unsafe.Pointer
	length   int
	capacity int
	// forgotten is scratch space SwapRemoveForget copies into; the returned
	// pointer is valid only until the next mutating call on this BlobVec.
	forgotten []byte
}

// NewBlobVec creates an empty BlobVec for layout with room for capacity
// elements pre-reserved.
func NewBlobVec(layout DataLayout, capacity int) *BlobVec {
	b := &BlobVec{layout: layout}
	if layout.Size > 0 {
		b.forgotten = make([]byte, layout.Size)
	}
	if capacity > 0 {
		b.Reserve(capacity)
	}
	return b
}

// Len returns the number of initialized elements.
func (b *BlobVec) Len() int { return b.length }

// Capacity returns the number of elements the current allocation can hold
// without growing.
func (b *BlobVec) Capacity() int { return b.capacity }

// Reserve grows the backing allocation so it can hold at least n elements
// total, copying existing data forward.
func (b *BlobVec) Reserve(n int) {
	if n <= b.capacity {
		return
	}
	if b.layout.Size == 0 {
		b.capacity = n
		return
	}
	if b.layout.GoType != nil {
		old := b.buffer
		newBuf := reflect.New(reflect.ArrayOf(n, b.layout.GoType)).Elem()
		if old.IsValid() && b.length > 0 {
			reflect.Copy(newBuf, old)
		}
		b.buffer = newBuf
		b.base = unsafe.Pointer(newBuf.Addr().Pointer())
		b.capacity = n
		return
	}
	newRaw := make([]byte, n*int(b.layout.Size))
	copy(newRaw, b.raw)
	b.raw = newRaw
	if len(newRaw) > 0 {
		b.base = unsafe.Pointer(&newRaw[0])
	}
	b.capacity = n
}

// PushUninit grows the vector by one uninitialized slot and returns its
// row index. The caller MUST write the slot (via SetUnchecked) before any
// other BlobVec operation observes it.
func (b *BlobVec) PushUninit() int {
	if b.length >= b.capacity {
		b.Reserve(growCapacity(b.capacity, b.length+1))
	}
	row := b.length
	b.length++
	return row
}

// GetUnchecked returns a pointer to the value at row. Unchecked: row must
// be < Len().
func (b *BlobVec) GetUnchecked(row int) unsafe.Pointer {
	if b.layout.Size == 0 {
		return unsafe.Pointer(b)
	}
	return unsafe.Add(b.base, uintptr(row)*b.layout.Size)
}

// SetUnchecked bitwise-copies the value at src into row, WITHOUT dropping
// whatever was previously there — used when the caller has already moved
// the old value out.
func (b *BlobVec) SetUnchecked(row int, src unsafe.Pointer) {
	if b.layout.Size == 0 {
		return
	}
	dst := b.GetUnchecked(row)
	copyBytes(dst, src, b.layout.Size)
}

// SwapRemoveDrop removes the value at row by swapping the last element
// into its place (if row wasn't already last) and running the layout's
// drop hook on the value that occupied row.
func (b *BlobVec) SwapRemoveDrop(row int) {
	if b.layout.Drop != nil {
		b.layout.Drop(b.GetUnchecked(row))
	}
	b.swapLastInto(row)
}

// SwapRemoveForget removes the value at row as SwapRemoveDrop does, but
// instead of dropping it, copies it into scratch space and returns a
// pointer to it so the caller can take ownership (e.g. move it into
// another column). The pointer is valid only until the next mutating call
// on this BlobVec.
func (b *BlobVec) SwapRemoveForget(row int) unsafe.Pointer {
	if b.layout.Size > 0 {
		copyBytes(unsafe.Pointer(&b.forgotten[0]), b.GetUnchecked(row), b.layout.Size)
	}
	b.swapLastInto(row)
	if b.layout.Size == 0 {
		return unsafe.Pointer(b)
	}
	return unsafe.Pointer(&b.forgotten[0])
}

// swapLastInto moves the last element into row (unless row is already
// last) and shrinks the vector by one.
func (b *BlobVec) swapLastInto(row int) {
	last := b.length - 1
	if row != last && b.layout.Size > 0 {
		copyBytes(b.GetUnchecked(row), b.GetUnchecked(last), b.layout.Size)
	}
	b.length--
}

func copyBytes(dst, src unsafe.Pointer, size uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), size)
	srcSlice := unsafe.Slice((*byte)(src), size)
	copy(dstSlice, srcSlice)
}

// growCapacity computes the next capacity that satisfies need, doubling
// from the current capacity (minimum 8) rather than growing by exactly one
// element at a time.
func growCapacity(current, need int) int {
	if current == 0 {
		current = 8
	}
	for current < need {
		current *= 2
	}
	return current
}
