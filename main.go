package main

import "github.com/KaramelBytes/ccsdb/cmd"

func main() {
	cmd.Execute()
}
