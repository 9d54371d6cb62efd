// Package logging provides structured logging for the transaction engine.
//
// # Overview
//
// Logger is a small key-value interface implemented on top of zap's sugared
// logger. Components receive a Logger at construction time and attach their
// own fields with WithFields:
//
//	log := logging.New(logging.Config{Level: "debug", Format: "json", Output: "stderr"})
//	txnLog := log.WithFields("component", "txn")
//	txnLog.Debug("transaction committed", "start", 12, "commit", 15)
//
// Tests use logging.NewNop, or wrap a zap observer core with FromZap to
// assert on emitted entries.
package logging
