package main

import "cadenza/cmd"

func main() {
	cmd.Execute()
}
