package main

import "github.com/marpio/gallery/cmd/gallery-cli/cmd"

func main() {
	cmd.Execute()
}
