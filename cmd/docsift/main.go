// Command docsift indexes document collections and answers TF-IDF
// ranked queries over them, either interactively or one-shot.
package main

import (
	"os"

	"github.com/docsift/docsift/cmd/docsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
