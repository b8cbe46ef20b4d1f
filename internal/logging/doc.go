// Package logging provides file-based logging with rotation for docsift.
// Logs are written to ~/.docsift/logs/ so that interactive output on stdout
// stays clean; the --log-level flag controls verbosity.
package logging
