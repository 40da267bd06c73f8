package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-transport/pool"
)

type item struct {
	id    int
	dirty bool
}

func TestObjectPool_Lifecycle(t *testing.T) {
	var created, disposed int
	p := pool.NewObjectPool(pool.ObjectPoolConfig[*item]{
		Capacity: 1,
		New: func() *item {
			created++
			return &item{id: created}
		},
		Reset:   func(it *item) bool { return !it.dirty },
		Dispose: func(*item) { disposed++ },
	})

	a := p.Get()
	b := p.Get()
	assert.Equal(t, 2, created)

	p.Put(a)
	p.Put(b) // over capacity
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 1, disposed)
	assert.Same(t, a, p.Get())

	a.dirty = true
	p.Put(a)
	assert.Equal(t, 2, disposed)
	assert.Zero(t, p.Len())

	c := p.Get()
	p.Put(c)
	p.Close()
	assert.Equal(t, 3, disposed)
	p.Put(&item{})
	assert.Equal(t, 4, disposed)
	p.Close()
}
