//go:build ignore

// Generates the command reference: go run ./cmd/notemark/doc_gen.go
package main

import (
	"log"

	"github.com/spf13/cobra/doc"

	"github.com/mithrel/notemark/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, "./docs/markdown"); err != nil {
		log.Fatal(err)
	}
	header := &doc.GenManHeader{Title: "NOTEMARK", Section: "1"}
	if err := doc.GenManTree(root, header, "./docs/man"); err != nil {
		log.Fatal(err)
	}
}
