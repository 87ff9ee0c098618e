package repository

import (
	"sync/atomic"

	pool "github.com/libp2p/go-buffer-pool"
)

// BufferPool recycles file content buffers in power-of-two size classes
// and keeps count of what is handed out. One pool is owned by a Namespace
// for its whole lifetime.
type BufferPool struct {
	classes pool.BufferPool
	inUse   atomic.Int64
	buffers atomic.Int64
	closed  atomic.Bool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a zeroed buffer of length size.
func (p *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	var buf []byte
	if p.closed.Load() {
		buf = make([]byte, size)
	} else {
		// Recycled buffers keep their old bytes.
		buf = p.classes.Get(size)
		clear(buf)
	}

	p.inUse.Add(int64(cap(buf)))
	p.buffers.Add(1)
	return buf
}

// Put hands a buffer obtained from Get back to the pool.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	p.inUse.Add(-int64(cap(buf)))
	p.buffers.Add(-1)

	if !p.closed.Load() {
		p.classes.Put(buf)
	}
}

// InUse is the number of bytes currently handed out.
func (p *BufferPool) InUse() int64 {
	return p.inUse.Load()
}

// Buffers is the number of buffers currently handed out.
func (p *BufferPool) Buffers() int64 {
	return p.buffers.Load()
}

// Close stops recycling. Buffers returned afterwards are left to the GC.
func (p *BufferPool) Close() {
	p.closed.Store(true)
}
