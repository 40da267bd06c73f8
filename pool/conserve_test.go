package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-transport/pool"
)

func TestConserveMemoryLevel(t *testing.T) {
	cases := map[string]int{
		"":    0,
		"0":   0,
		"3":   3,
		" 7 ": 7,
		"9":   9,
		"42":  9,
		"-2":  0,
		"x":   0,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Setenv(pool.ConserveMemoryEnvVar, raw)
			assert.Equal(t, want, pool.ConserveMemoryLevel())
		})
	}
}

func TestConservationRatio(t *testing.T) {
	assert.InDelta(t, 1.0, pool.ConservationRatio(0), 1e-9)
	assert.InDelta(t, 0.5, pool.ConservationRatio(5), 1e-9)
	assert.InDelta(t, 0.1, pool.ConservationRatio(9), 1e-9)
	assert.InDelta(t, 0.1, pool.ConservationRatio(20), 1e-9)
	assert.InDelta(t, 1.0, pool.ConservationRatio(-3), 1e-9)
	assert.EqualValues(t, 500, pool.ScaledMemoryLimit(1000, 5))
}

func TestNewPinnedBlockPool_ScalesDefaultLimit(t *testing.T) {
	t.Setenv(pool.ConserveMemoryEnvVar, "5")
	p := pool.NewPinnedBlockPool()
	assert.EqualValues(t, pool.DefaultMemoryLimit/2, p.MemoryLimit())

	p = pool.NewPinnedBlockPool(pool.WithMemoryLimit(8 * pool.BlockSize))
	assert.EqualValues(t, 8*pool.BlockSize, p.MemoryLimit())
}
