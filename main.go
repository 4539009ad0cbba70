package main

import "identity-service/cmd"

func main() {
	cmd.Execute()
}
