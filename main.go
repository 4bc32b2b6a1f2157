package main

import (
	"digitalsight/cmd"
)

func main() {
	cmd.Execute()
}
