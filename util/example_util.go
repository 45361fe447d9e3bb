package util

import (
	"fmt"
)

func ExampleClamp() {
	fmt.Println(Clamp(15, 0, 10))
	// Output: 10
}

func ExampleMedian() {
	fmt.Println(Median([]float64{3, 1, 2}))
	// Output: 2
}

func ExampleTrimmedMean() {
	fmt.Println(TrimmedMean([]float64{1, 10, 11, 12, 100}, 0.4))
	// Output: 11
}
