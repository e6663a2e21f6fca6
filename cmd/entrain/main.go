// Command entrain lists, renders and plays brainwave entrainment presets.
//
// Usage:
//
//	entrain presets
//	entrain render -p theta-relax -m 20 -o session.pcm
//	entrain play -p alpha-focus -m 15
//	entrain config
package main

import (
	"context"
	"os"

	"github.com/cwbudde/algo-entrain/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
