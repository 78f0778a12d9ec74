package main

import "github.com/nextlevelbuilder/sellerclaw/cmd"

func main() {
	cmd.Execute()
}
