package main

import "github.com/cmmoran/autoctor/cmd"

func main() {
	cmd.Execute()
}
