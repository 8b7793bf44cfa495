package internal

import (
	"log/slog"
	"runtime"
	"sync"
)

const (
	// LevelTrace logs per-tick and per-state detail below slog.LevelDebug.
	LevelTrace slog.Level = slog.LevelDebug - 2
)

var (
	memstats    runtime.MemStats
	lastAllocs  uint64
	lastMallocs uint64
	allocmu     sync.Mutex
)

// LogAllocs prints the heap delta since its previous call when it is nonzero.
// Used by the debugheaplog build to catch allocations inside the bit loop.
func LogAllocs(msg string) {
	allocmu.Lock()
	runtime.ReadMemStats(&memstats)
	if memstats.TotalAlloc != lastAllocs {
		print("[ALLOC] ", msg)
		print(" inc=", int64(memstats.TotalAlloc)-int64(lastAllocs))
		print(" n=", int64(memstats.Mallocs)-int64(lastMallocs))
		print(" heap=", memstats.HeapAlloc)
		println()
		lastAllocs = memstats.TotalAlloc
		lastMallocs = memstats.Mallocs
	}
	allocmu.Unlock()
}
