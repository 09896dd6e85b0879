package main

import "examgrader/cmd"

func main() {
	cmd.Execute()
}
