package main

import "github.com/notargets/goiga/cmd"

func main() {
	cmd.Execute()
}
