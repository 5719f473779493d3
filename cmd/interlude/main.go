package main

import "github.com/tessro/interlude/internal/cli"

func main() {
	cli.Execute()
}
