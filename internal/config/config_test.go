package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfigIsValid tests that defaults pass validation.
func TestDefaultConfigIsValid(t *testing.T) {
	assert.Empty(t, ValidateConfig(DefaultConfig()))
}

// TestParseConfig tests that parsed values override defaults.
func TestParseConfig(t *testing.T) {
	t.Setenv("OBATXN_TEST_DIR", "/tmp/obatxn-test")

	cfg, err := ParseConfig([]byte(`
[storage]
data_dir = "${OBATXN_TEST_DIR}"
wal_buffer_size = 4096

[txn]
reclaim_on_commit = false

[logging]
level = "${OBATXN_TEST_LEVEL:-debug}"
format = "text"
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/obatxn-test", cfg.Storage.DataDir)
	assert.Equal(t, "txn.wal", cfg.Storage.WALFile)
	assert.Equal(t, 4096, cfg.Storage.WALBufferSize)
	assert.False(t, cfg.Txn.ReclaimOnCommit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

// TestParseConfigRejectsUnknownKeys tests strict key checking.
func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("[storage]\npage_size = 4096\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

// TestLoadConfig tests loading from disk and the missing file error.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obatxn.toml")
	require.NoError(t, os.WriteFile(path, []byte("[metrics]\nenabled = true\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

// TestValidateConfig tests that every invalid field is reported.
func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = ""
	cfg.Storage.WALBufferSize = -1
	cfg.Logging.Level = "verbose"
	cfg.Logging.Format = "xml"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = ""

	errs := ValidateConfig(cfg)
	fields := make([]string, 0, len(errs))
	for _, err := range errs {
		var verr ValidationError
		require.True(t, errors.As(err, &verr))
		fields = append(fields, verr.Field)
	}
	assert.ElementsMatch(t, []string{
		"storage.data_dir",
		"storage.wal_buffer_size",
		"logging.level",
		"logging.format",
		"metrics.namespace",
	}, fields)
}
