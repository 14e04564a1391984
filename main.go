package main

import "github.com/maximbilan/esmify/cmd"

func main() {
	cmd.Execute()
}
