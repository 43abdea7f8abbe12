package main

import "github.com/dest-ash/bnncache/internal/cli"

func main() {
	cli.Execute()
}
