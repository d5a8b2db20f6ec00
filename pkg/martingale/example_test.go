package martingale_test

import (
	"fmt"

	"github.com/obsidianstack/csbounds/pkg/martingale"
)

func ExampleThreshold() {
	if martingale.CheckConstants() != 0 {
		panic("miscompiled constants")
	}

	// Two-sided 95% sequence, checked from the 32nd observation on.
	logEps := martingale.LogEps(0.05) + martingale.EQ
	fmt.Printf("%.2f\n", martingale.Threshold(1000, 32, logEps))
	fmt.Println(martingale.Threshold(10, 32, logEps))
	// Output:
	// 123.54
	// +Inf
}

func ExampleQuantileRanks() {
	logEps := martingale.LogEps(0.05)
	fmt.Printf("slop %.2f, hi %.2f, lo %.2f\n",
		martingale.QuantileSlop(0.9, 10000, 32, logEps),
		martingale.QuantileSlopHi(0.9, 10000, 32, logEps),
		martingale.QuantileSlopLo(0.9, 10000, 32, logEps))

	lo, hi := martingale.QuantileRanks(0.9, 10000, 32, logEps)
	fmt.Println(lo, hi)
	// Output:
	// slop 367.21, hi 204.45, lo -123.07
	// 8876 9205
}
