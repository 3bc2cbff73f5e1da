package main

import "github.com/foldwatch/foldwatch/cmd"

func main() {
	cmd.Execute()
}
