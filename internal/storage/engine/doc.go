// Package engine assembles the transaction core from configuration.
//
// # Overview
//
// Open creates the data directory, opens the write-ahead log and wires a
// txn.LogBridge, a txn.Watermark and a txn.Manager on top of it. When
// metrics are enabled the manager reports to a private prometheus registry
// exposed through Gatherer.
//
// # Creating an Engine
//
//	cfg := config.DefaultConfig()
//	cfg.Storage.DataDir = "/var/lib/obatxn"
//
//	eng, err := engine.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
// # Overlays
//
// Persisted indexes and record tables are wrapped with Index and Table.
// Cursors and lookups made through the wrappers see the committed but not
// yet flushed changes of the caller's snapshot and the caller's own
// in-flight writes:
//
//	users := eng.Index("users", cnIndex)
//	cur, err := users.Cursor(ctx, index.Forward)
//
// # Inspecting the Log
//
// Replay decodes every edit of a log file, which is what the
// "obatxn wal dump" command uses.
package engine
