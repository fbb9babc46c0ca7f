// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Request-scoped values
// (request id, user id) are carried in the context and picked up by
// WithContext.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("identity")
//	log.Info("signup completed", logger.Fields(logger.FieldUserID, id))
package logger
