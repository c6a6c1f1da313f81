package main

import (
	"github.com/praetorian-inc/pulsar/cmd"
)

func main() {
	cmd.Execute()
}
