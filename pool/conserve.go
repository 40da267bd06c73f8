// File: pool/conserve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Memory conservation tunable read from the environment.

package pool

import (
	"os"
	"strconv"
	"strings"
)

// ConserveMemoryEnvVar holds a level in [0,9]; higher levels shrink the
// idle memory budget of every pool.
const ConserveMemoryEnvVar = "HIOLOAD_CONSERVE_MEMORY"

const maxConserveLevel = 9

// ConserveMemoryLevel reads the conservation level. Missing or malformed
// values yield 0; out of range values are clamped.
func ConserveMemoryLevel() int {
	raw := strings.TrimSpace(os.Getenv(ConserveMemoryEnvVar))
	if raw == "" {
		return 0
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return min(max(level, 0), maxConserveLevel)
}

// ConservationRatio maps a level to a ratio in [0.1, 1.0].
func ConservationRatio(level int) float64 {
	ratio := 1 - float64(level)/10
	return min(max(ratio, 0.1), 1.0)
}

// ScaledMemoryLimit applies the conservation ratio of level to limit.
func ScaledMemoryLimit(limit int64, level int) int64 {
	return int64(float64(limit) * ConservationRatio(level))
}
