// Command matrixctl drives the matrix calculator appliance from the host
// side of its serial link: scripted sessions, state snapshots, and version
// information.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
