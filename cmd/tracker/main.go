// Command tracker serves and administers the issue store.
package main

import "github.com/mesh-intelligence/tracker/internal/cli"

func main() {
	cli.Execute()
}
