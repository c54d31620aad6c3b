package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mithrel/notemark/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "notemark:", err)
		os.Exit(1)
	}
}
