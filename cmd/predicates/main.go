package main

import (
	"os"

	"github.com/solatis/predicates/cmd/predicates/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
