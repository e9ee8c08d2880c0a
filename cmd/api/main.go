package main

import "github.com/anchalk04/smart-parking/internal/cli"

func main() {
	cli.Execute()
}
