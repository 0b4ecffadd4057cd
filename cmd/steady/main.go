// Command steady runs the FizzBuzz actor pipeline until the heartbeat has
// fired the configured number of beats or the process is interrupted.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
