package main

import "github.com/openfueldata/cardata/cmd"

func main() {
	cmd.Execute()
}
