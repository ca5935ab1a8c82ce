// Package main provides the entry point for cachesim.
// cachesim is a set-associative cache simulator with miss classification.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - set-associative cache simulator")
	fmt.Println("Classifies misses as compulsory, conflict, or capacity")
	fmt.Println("")
	fmt.Println("Usage: cachesim trace.txt [cache_size] [block_size] [assoc] [policy] [addr_bits] [-v]")
	fmt.Println("       cachesim sweep trace.txt [--sizes ...] [--blocks ...] [--assocs ...] [--policies ...]")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
