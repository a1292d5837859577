// Command scanmarker republishes laser scans as rviz point markers.
package main

import "github.com/deepakkamesh/scanmarker/cmd/scanmarker/cmd"

func main() {
	cmd.Execute()
}
