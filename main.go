// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package main

import (
	"github.com/bitkoop-network/miner-cli/cmd"
)

func main() {
	cmd.Execute()
}
