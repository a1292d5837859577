// Command ydlidar-scan publishes YDLidar revolutions as laser scans.
package main

import "github.com/deepakkamesh/scanmarker/cmd/ydlidar-scan/cmd"

func main() {
	cmd.Execute()
}
