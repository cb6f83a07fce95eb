// Command cli is the journalist command-line client.
package main

import (
	"os"

	"github.com/spinnn/energy-data-journalist/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
