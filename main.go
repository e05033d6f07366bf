package main

import (
	"os"

	"blog/cmd"

	_ "time/tzdata"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
