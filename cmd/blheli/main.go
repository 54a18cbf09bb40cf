package main

import "github.com/anupcshan/blheli/cmd/blheli/cmd"

func main() {
	cmd.Execute()
}
