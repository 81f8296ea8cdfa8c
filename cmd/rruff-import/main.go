// Command rruff-import loads the RRUFF mineral list and spectra into the
// mineral knowledge base.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
