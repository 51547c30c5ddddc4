package main

import "github.com/ideaspaper/rq/cmd"

func main() {
	cmd.Execute()
}
