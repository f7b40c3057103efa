// Command consulthub runs the multi-tenant consultancy core: the HTTP API,
// schema migrations and the audit outbox relay.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
