package main

import (
	"os"

	"github.com/soundprediction/go-kgmerge/cmd/kgmerge"
)

func main() {
	if err := kgmerge.Execute(); err != nil {
		os.Exit(1)
	}
}
