package main

import "docsite/cmd"

func main() {
	cmd.Execute()
}
