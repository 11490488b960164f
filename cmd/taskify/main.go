package main

import "taskify/cmd/taskify/cmd"

func main() {
	cmd.Execute()
}
