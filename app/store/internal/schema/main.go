// Command schema writes JSON schema of the jobs document, used by editors to validate data files
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/umputun/jobboard/app/store"
)

func main() {
	data, err := store.Schema()
	if err != nil {
		log.Fatalf("failed to make schema: %v", err)
	}

	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("failed to write schema file: %v", err)
	}

	fmt.Printf("Schema generated successfully at %s\n", outputPath)
}
