// Package config provides configuration parsing for the transaction engine.
//
// Configuration is TOML. Missing keys keep their defaults, unknown keys are
// rejected and ${VAR} / ${VAR:-default} references are expanded from the
// environment before parsing:
//
//	[storage]
//	data_dir = "${OBATXN_DATA:-/var/lib/obatxn}"
//	wal_file = "txn.wal"
//
//	[txn]
//	reclaim_on_commit = true
//
//	[logging]
//	level = "debug"
//	format = "text"
//
// ValidateConfig reports every problem at once as ValidationError values.
package config
