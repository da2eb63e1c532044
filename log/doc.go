// Package log provides the leveled logging interface used across simplerag.
//
// Loaders, stores and the RAG pipeline log through the Logger interface so
// applications can plug in their own backend. The bundled implementation is
// backed by github.com/kataras/golog.
//
//	logger := log.NewGologLogger(golog.New())
//	logger.SetLevel(log.LogLevelDebug)
//	logger.Debug("embedding %d chunks", len(chunks))
//
// A package-level logger is used when a component is not given one:
//
//	log.SetLogLevel(log.LogLevelWarn)
//	log.Info("not shown")
//
// Use NoOpLogger to silence a component entirely.
package log
