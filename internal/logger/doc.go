// Package logger wraps zap with a process-wide sugared logger.
//
// Components never hold a logger: they receive a context, name it with
// WithName, attach fields with WithKV and log through the package helpers.
// Level and encoder come from the settings file via Configure.
package logger
