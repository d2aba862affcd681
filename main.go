package main

import (
	"os"

	"github.com/lucasmnd/hkroster/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
