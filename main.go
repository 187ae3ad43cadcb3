package main

import "debuggenie/cmd"

func main() {
	cmd.Execute()
}
