// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Process-level probes.

package control

import (
	"runtime"

	"github.com/momentics/hioload-transport/pool"
)

// RegisterPlatformProbes adds CPU, OS and memory conservation probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS
	})
	dp.RegisterProbe("pool.conserve_level", func() any {
		return pool.ConserveMemoryLevel()
	})
	dp.RegisterProbe("pool.default_memory_limit", func() any {
		return pool.ScaledMemoryLimit(pool.DefaultMemoryLimit, pool.ConserveMemoryLevel())
	})
}
