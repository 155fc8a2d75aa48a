package main

import "github.com/KaramelBytes/linefit/cmd"

func main() {
	cmd.Execute()
}
