// Command dagflow loads a DAG specification document, schedules its
// vertices, and runs them to completion.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
