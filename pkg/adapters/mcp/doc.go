// Package mcp exposes a rewind Engine as Model Context Protocol tools, so an agent can create
// trajectories, step them, preview rollbacks and check report readiness.
package mcp
