// Package handlers implements the HTTP API: sticker generation, cache
// inspection and clearing, generation history, health and version.
package handlers
