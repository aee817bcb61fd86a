// Command graphctl operates the graph builder: it serves the API, prepares
// stores and scores topic lists offline.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
