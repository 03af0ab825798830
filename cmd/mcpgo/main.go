// Command mcpgo runs an MCP server, or drives one spawned as a child
// process, per the subcommands in cmd/mcpgo/commands.
package main

import "github.com/wireloop/mcpgo/cmd/mcpgo/commands"

func main() {
	commands.Execute()
}
