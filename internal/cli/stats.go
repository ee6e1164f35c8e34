package cli

import (
	"fmt"
	"sort"

	"github.com/curiolabs/curio-go/internal/metrics"
)

// printStats displays a pipeline statistics snapshot.
func printStats(snap metrics.Snapshot) {
	fmt.Printf("\nPipeline Statistics (in-memory, this invocation)\n")
	fmt.Printf("═══════════════════════════════════════════════\n")
	fmt.Printf("Elapsed: %.1f seconds\n", snap.UptimeSeconds)

	if snap.LLMCheap != nil {
		fmt.Printf("\nCheap tier (topic gate):\n")
		printOpStats(snap.LLMCheap)
	}

	if snap.LLMCapable != nil {
		fmt.Printf("\nCapable tier (scoring, profile evolution):\n")
		printOpStats(snap.LLMCapable)
	}

	if snap.DBQuery != nil {
		fmt.Printf("\nDB Query:\n")
		printOpStats(snap.DBQuery)
	}

	if len(snap.Counters) > 0 {
		fmt.Printf("\nCounters:\n")
		names := make([]string, 0, len(snap.Counters))
		for name := range snap.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-25s %d\n", name, snap.Counters[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
