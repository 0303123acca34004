// socketctl is the CLI client for socketcored: it talks to the
// daemon's JSON introspection endpoint over plain HTTP.
package main

import "github.com/embedstack/socketcore/cmd/socketctl/commands"

func main() {
	commands.Execute()
}
