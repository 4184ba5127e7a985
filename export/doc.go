// Package export converts tool descriptors to the tool definitions
// of LLM providers, and provider tool calls back to tool requests.
package export
