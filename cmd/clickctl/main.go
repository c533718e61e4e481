// clickctl reads and writes mikroBUS clicks attached to a Linux host.
//
//	clickctl list
//	clickctl read accel
//	clickctl time sync rtc
//	clickctl mem dump eeram 0x0000 64
package main

import (
	"os"

	"clickcode-go/platform/host"
)

func main() {
	root := newRootCmd(newApp(func() (Hardware, error) { return host.Open() }))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
