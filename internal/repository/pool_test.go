package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPoolAccounting(t *testing.T) {
	pool := NewBufferPool()

	assert.Nil(t, pool.Get(0))

	buf := pool.Get(100)
	require.Len(t, buf, 100)
	assert.Equal(t, 128, cap(buf))
	assert.Equal(t, int64(128), pool.InUse())
	assert.Equal(t, int64(1), pool.Buffers())

	other := pool.Get(5000)
	assert.Equal(t, 8192, cap(other))
	assert.Equal(t, int64(128+8192), pool.InUse())
	assert.Equal(t, int64(2), pool.Buffers())

	pool.Put(buf)
	pool.Put(other)
	assert.Zero(t, pool.InUse())
	assert.Zero(t, pool.Buffers())

	pool.Put(nil)
	assert.Zero(t, pool.Buffers())
}

func TestBufferPoolReturnsZeroedBuffers(t *testing.T) {
	pool := NewBufferPool()

	for i := 0; i < 8; i++ {
		buf := pool.Get(200)
		require.Len(t, buf, 200)
		for j := range buf {
			assert.Zero(t, buf[j])
			buf[j] = 0xff
		}
		pool.Put(buf)
	}
	assert.Zero(t, pool.InUse())
}

func TestBufferPoolClosed(t *testing.T) {
	pool := NewBufferPool()
	buf := pool.Get(10)
	pool.Close()
	pool.Put(buf)

	assert.Zero(t, pool.InUse())

	buf = pool.Get(10)
	assert.Len(t, buf, 10)
	assert.Equal(t, int64(1), pool.Buffers())
}
