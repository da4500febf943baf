package main

import (
	"os"

	raglinecmder "github.com/raglinehq/ragline/cmd/ragline"
)

func main() {
	cmd := raglinecmder.NewRaglineCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
