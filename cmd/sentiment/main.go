// Command sentiment runs the lexicon analyzer locally without the API.
//
//	sentiment analyze --model advanced "great launch, awful support"
//	echo "text" | sentiment analyze -
//	sentiment analyze --file notes.pdf --keyword pricing
//	sentiment topics
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
