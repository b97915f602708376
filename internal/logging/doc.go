// Package logging is a thin leveled wrapper over the standard library
// logger for the sticker generation service.
//
// Debug, Info, Warn and Error gate on a level resolved once from the
// environment: DEBUG=1 (or true/yes/on) forces debug output, otherwise
// LOG_LEVEL selects the floor. The default level is info.
package logging
