// Package anthropic provides a sage.ChatProvider backed by the Anthropic
// Messages API.
//
// System messages are sent as the request's system blocks. Tool results,
// stored one per message in a thread, are grouped into a single user turn of
// tool_result blocks as the API requires.
package anthropic
