package main

import (
	"github.com/robotalks/telelink/pkg/cli/sh"
	"github.com/robotalks/telelink/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
