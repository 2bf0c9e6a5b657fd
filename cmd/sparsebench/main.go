// SPDX-License-Identifier: MIT

// Command sparsebench generates a synthetic finite-element mesh, assembles its
// sparsity graph with both storage strategies, reports timings and optionally
// saves the patterns through package serialize.
//
//	sparsebench run --elements 1000000 --workers 8 --out patterns.bin
//	sparsebench inspect patterns.bin
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
