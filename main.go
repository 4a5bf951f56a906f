package main

import "github.com/naka-gawa/skills-radar/cmd"

func main() {
	cmd.Execute()
}
