// Package google provides a sage.ChatProvider backed by the Gemini API
// through google.golang.org/genai.
//
// System messages become the request's system instruction. Tool results are
// sent as function responses named after the call they answer, and calls
// without a Gemini-assigned id get a synthesized one.
package google
