package main

import (
	"fmt"
	"os"

	"github.com/coral-mesh/mcumon/internal/cli"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
)

func main() {
	err := cli.Execute()
	code := mcuerrors.CodeOf(err)
	if err != nil && code != mcuerrors.ExitInterrupted {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(int(code))
}
