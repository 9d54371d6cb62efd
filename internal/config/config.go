// Package config provides configuration parsing for the transaction engine.
package config

// Config holds the complete engine configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Txn     TxnConfig     `toml:"txn"`
	Logging LogConfig     `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

// StorageConfig holds write-ahead log configuration.
type StorageConfig struct {
	DataDir       string `toml:"data_dir"`
	WALFile       string `toml:"wal_file"`
	WALBufferSize int    `toml:"wal_buffer_size"`
}

// TxnConfig holds transaction manager configuration.
type TxnConfig struct {
	// ReclaimOnCommit drops the flushed, unpinned prefix of the committed
	// sequence after every successful commit.
	ReclaimOnCommit bool `toml:"reclaim_on_commit"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig holds prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}
