package main

import "github.com/naka-gawa/talentrank/cmd"

func main() {
	cmd.Execute()
}
