package main

import "github.com/Fepozopo/blurcore/pkg/cli"

func main() {
	cli.Run()
}
