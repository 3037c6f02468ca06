package engine

import (
	"fmt"
	"unsafe"
)

const arenaAlign = 16

// Arena is the engine's working memory: one contiguous region allocated at
// startup and never resized. Allocations are handed out bump-pointer style;
// there is no per-allocation free, only Reset.
//
// The arena is owned by a single Engine and mutated from a single goroutine.
type Arena struct {
	buf []byte
	off int
}

// NewArena allocates an arena of the given size in bytes. The allocation
// happens exactly once; callers treat an error as fatal.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size must be positive, got %d", size)
	}
	return &Arena{buf: make([]byte, size)}, nil
}

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int { return len(a.buf) }

// Used returns the number of bytes currently handed out.
func (a *Arena) Used() int { return a.off }

// Alloc returns an aligned slice of n bytes carved from the arena, or an
// error when the remaining capacity cannot hold it.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("allocation size must be positive, got %d", n)
	}
	off := (a.off + arenaAlign - 1) &^ (arenaAlign - 1)
	if off+n > len(a.buf) {
		return nil, fmt.Errorf("arena exhausted: need %d bytes, %d of %d free",
			n, len(a.buf)-off, len(a.buf))
	}
	a.off = off + n
	return a.buf[off : off+n : off+n], nil
}

// AllocInt8 returns n signed bytes backed by arena memory.
func (a *Arena) AllocInt8(n int) ([]int8, error) {
	b, err := a.Alloc(n)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), n), nil
}

// Reset releases all allocations at once. Existing slices must not be used
// afterwards.
func (a *Arena) Reset() { a.off = 0 }
