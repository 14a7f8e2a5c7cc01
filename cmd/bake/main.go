// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

// Command bake is the generic entry point described in spec §6,
// wired by default against this repo's own example project
// (examples/demo) the way a downstream project would vendor package
// bakery and supply its own main wiring its own modules.
package main

import (
	"github.com/lainproliant/bakery/bakecli"
	"github.com/lainproliant/bakery/examples/demo"
)

func main() {
	bakecli.Main(demo.Register)
}
