// cmd/tools/graph-admin/main.go
package main

import (
	"os"

	"cypher-catalog/internal/admincli"
)

func main() {
	os.Exit(admincli.Execute())
}
