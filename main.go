package main

import "contact-sync/cmd"

func main() {
	cmd.Execute()
}
