// Package mcp connects sage tools to the Model Context Protocol.
//
// NewServer exposes a tool executor to MCP clients such as desktop
// assistants; `sage -mcp` serves the built-in tools this way over stdio.
// Remote goes the other direction: it lists the tools of an MCP server and
// runs the agent's tool calls against it, so a remote server can stand in for
// the local executor:
//
//	remote, err := mcp.NewRemote(ctx, "./other-server", nil)
//	if err != nil {
//	    return err
//	}
//	defer remote.Close()
//
//	a := agent.New(invoker, convs, remote, remote.Tools())
package mcp
