// Package logger wraps zap to give the wrapper a single structured logger:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - leveled helpers taking a context (Infof, ErrorKV, ...).
//
// Stdout is reserved for the relayed child output and workflow commands, so
// every log line goes to stderr.
package logger
