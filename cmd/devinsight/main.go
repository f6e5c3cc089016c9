package main

import "github.com/admbahm/devinsight/internal/cmd"

func main() {
	cmd.Execute()
}
