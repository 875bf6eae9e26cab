package main

import (
	"os"

	"github.com/solatis/surveylogic/cmd/surveylogic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
