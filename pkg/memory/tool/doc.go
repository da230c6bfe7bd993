// Package tool adapts the memory store and backup manager into
// agent-callable tools. The Kit's methods never return errors; every
// failure is logged and surfaced as a result message or an empty list,
// keeping the chat-bot integration free of error plumbing.
package tool
