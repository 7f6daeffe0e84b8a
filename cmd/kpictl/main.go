package main

import "github.com/dailykpi/cmd/kpictl/root"

func main() {
	root.Execute()
}
