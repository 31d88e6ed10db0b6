package tensor

// Buffer exclusively owns a contiguous byte region whose size is fixed at creation.
//
// Tensor handles alias a Buffer and keep it alive through Retain and Release. When the
// last handle is released the release hook runs once; the bytes stay readable so stale
// holders observe frozen data.
type Buffer struct {
	data      []byte
	refs      int
	written   bool
	released  bool
	onRelease func()
}

// NewBuffer allocates a zero-filled buffer of size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, max(size, 0))}
}

// OnRelease sets the function run after the last handle is released.
func (b *Buffer) OnRelease(fn func()) { b.onRelease = fn }

// Retain registers one more handle.
func (b *Buffer) Retain() { b.refs++ }

// Release drops one handle and reports whether it was the last one.
func (b *Buffer) Release() bool {
	if b.refs == 0 {
		return false
	}
	b.refs--
	if b.refs > 0 || b.released {
		return false
	}
	b.released = true
	if b.onRelease != nil {
		b.onRelease()
	}
	return true
}

// Refs returns the number of live handles.
func (b *Buffer) Refs() int { return b.refs }

// Released reports whether the last handle has been released.
func (b *Buffer) Released() bool { return b.released }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Data returns the live byte view. Writers must call MarkWritten.
func (b *Buffer) Data() []byte { return b.data }

// Written reports whether the contents were ever written.
func (b *Buffer) Written() bool { return b.written }

// MarkWritten records that the contents hold meaningful data.
func (b *Buffer) MarkWritten() { b.written = true }
