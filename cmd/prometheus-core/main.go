// Command prometheus-core is the operator-facing entrypoint for the memory
// & runtime core: database lifecycle, codebase indexing, hybrid search, and
// one-shot LM dispatch, all over the same Store a long-running agent
// process would use.
package main

import "os"

func main() {
	app := NewCLI()
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
