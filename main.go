package main

import (
	// the status footer time zone must load without a system zoneinfo database
	_ "time/tzdata"

	"github.com/wajed-network/bridge/cmd"
)

// version is set at build time
var version string

func main() {
	cmd.Execute(version)
}
