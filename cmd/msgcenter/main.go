package main

import "github.com/next-trace/scg-message-center/cmd/msgcenter/cmd"

func main() {
	cmd.Execute()
}
