// Command ringmesh-node runs one compute node: it registers with the
// registry, joins its assigned ring position, and executes rounds until
// the process is killed.
package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/ringmesh/internal/cli"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	root := cli.BuildNodeCLI()
	root.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
