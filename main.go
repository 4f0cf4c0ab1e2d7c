package main

import "github.com/user/draftsmith/cmd"

func main() {
	cmd.Execute()
}
