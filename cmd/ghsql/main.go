// Command ghsql runs SQL against a GitHub Projects board.
package main

import "github.com/mesh-intelligence/ghsql/internal/cli"

func main() {
	cli.Execute()
}
