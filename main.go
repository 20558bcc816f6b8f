package main

import "github.com/yoanbernabeu/golens/cli"

func main() {
	cli.Execute()
}
