package config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:       "/var/lib/obatxn",
			WALFile:       "txn.wal",
			WALBufferSize: 64 * 1024,
		},
		Txn: TxnConfig{
			ReclaimOnCommit: true,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "obatxn",
		},
	}
}
