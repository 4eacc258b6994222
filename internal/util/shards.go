package util

import "runtime"

// ReasonableShardCount picks a practical default shard count based on
// CPU parallelism. Heuristic: nextPow2(2*GOMAXPROCS), clamped to
// [1..256]. This sharply reduces lock contention without bloating the
// per-shard slot tables.
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	return n
}
