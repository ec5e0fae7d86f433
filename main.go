package main

import "github.com/fakeyudi/duelword/cmd"

func main() {
	cmd.Execute()
}
