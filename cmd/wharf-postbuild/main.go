package main

import (
	"fmt"

	wharfpostbuild "github.com/iver-wharf/wharf-postbuild"
)

func main() {
	version, err := wharfpostbuild.GetVersion()
	if err != nil {
		fmt.Println("Failed to load version:", err)
	}
	execute(version)
}
