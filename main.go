// The main package for the segscout executable.
package main

import (
	"github.com/pacelab/segscout/cmd"
)

func main() {
	cmd.Execute()
}
