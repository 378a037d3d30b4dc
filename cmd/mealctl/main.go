package main

import (
	"fmt"
	"os"

	"meal-recommender/internal/pkg/common"
)

func main() {
	err := newRootCmd().Execute()
	common.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
