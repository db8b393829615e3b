// Pingcraft builds an ICMPv4 Echo Request frame layer by layer with the
// header views and injects it out a network device.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
