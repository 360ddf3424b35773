package main

import "github.com/stackvista/sts-lifecycle/cmd"

func main() {
	cmd.Execute()
}
