package health

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
)

// canaryRemainingV is the remaining voltage of a single default hub: 48 V
// less 5 A over 0.04375 Ω.
const canaryRemainingV = 47.78125

// CalculatorCheck runs a one-hub calculation with default parameters and
// compares it with the known answer.
func CalculatorCheck() CheckFunc {
	return func() Check {
		check := Check{Name: "calculator", Details: make(map[string]any)}

		res, err := calc.Calculate(calc.DefaultInput(8))
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		got := res.Segments[0].RemainingV
		check.Details["remaining_v"] = got
		if math.Abs(got-canaryRemainingV) > 1e-9 {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("canary calculation returned %v V, want %v V", got, canaryRemainingV)
			return check
		}

		check.Status = StatusHealthy
		check.Message = "OK"
		return check
	}
}

// MemoryCheck reports heap and goroutine counts and degrades when the heap
// grows beyond maxHeapBytes (0 disables the limit).
func MemoryCheck(maxHeapBytes uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name:   "memory",
			Status: StatusHealthy,
			Details: map[string]any{
				"heap_alloc_bytes": m.HeapAlloc,
				"goroutines":       runtime.NumGoroutine(),
			},
		}
		if maxHeapBytes > 0 && m.HeapAlloc > maxHeapBytes {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("heap %d bytes exceeds %d", m.HeapAlloc, maxHeapBytes)
		}
		return check
	}
}

// OutputDirCheck verifies that reports can be written to dir.
func OutputDirCheck(dir string) CheckFunc {
	return func() Check {
		check := Check{Name: "output_dir", Details: map[string]any{"dir": dir}}

		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		abs, _ := filepath.Abs(dir)
		check.Details["dir"] = abs
		check.Status = StatusHealthy
		check.Message = "writable"
		return check
	}
}
