// Package logger provides structured logging for strategykit using zerolog.
//
// Loggers carry the service name and can be narrowed to a component or a
// strategy. Fields are passed as maps built with Fields or NodeFields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.GetGlobalLogger().WithComponent("compiler").WithStrategy(s.ID)
//	log.Info("compiled", logger.Fields(logger.FieldCommands, n))
package logger
