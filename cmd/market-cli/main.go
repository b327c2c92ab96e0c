package main

import "market-core/cmd/market-cli/cmd"

func main() {
	cmd.Execute()
}
