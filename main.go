package main

import "github.com/chukul/cloudview/cmd"

func main() {
	cmd.Execute()
}
