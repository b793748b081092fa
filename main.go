// mirror-config loads, validates and normalizes image set configurations
// consumed by image mirroring tools.
package main

import (
	"os"

	"chainguard.dev/tw/mirror-config/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
