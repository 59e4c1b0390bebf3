package main

import "github.com/frahmantamala/hr-registry/cmd"

func main() {
	cmd.Execute()
}
