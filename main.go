package main

import "netmon/cmd"

func main() {
	cmd.Execute()
}
