package main

import (
	"os"

	"github.com/locvowork/sheetmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
