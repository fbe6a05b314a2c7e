package main

import "github.com/artpro/wealthtrack/cmd"

func main() {
	cmd.Execute()
}
