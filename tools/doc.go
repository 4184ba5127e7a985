// Package tools turns plain Go functions into tools an LLM agent can discover and call.
// A Descriptor carries the tool name, description and parameter schema; Invoke validates
// and coerces untrusted arguments against that schema, runs the function and returns a
// serializable Result. A Registry keys descriptors by name and advertises them to the agent.
package tools
