package main

import "health-record-vault/cmd/command"

func main() {
	command.Execute()
}
