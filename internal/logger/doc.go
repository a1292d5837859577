// Package logger wraps zap with a global sugared logger, context helpers,
// level parsing and a mapping onto the rosgo logger severity.
package logger
