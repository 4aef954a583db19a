package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := common.LoadConfig()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, "eng+fra+deu+spa", cfg.OCR.Languages)
	assert.Equal(t, "lexicon", cfg.Semantic.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_MAX_CONCURRENT", "5")
	t.Setenv("WATCH_DIRS", "/a, /b ,")
	t.Setenv("PIPELINE_PROCESS_TIMEOUT", "90s")

	cfg := common.LoadConfig()

	assert.Equal(t, 5, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Ingest.WatchDirs)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.ProcessTimeout)
}

func TestLoadConfigFile_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.yaml")
	yml := `
database:
  driver: postgres
  dsn: postgres://localhost/capture
pipeline:
  max_concurrent: 7
  keep_attachment: false
ingest:
  watch_dirs: [/shots]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("PIPELINE_MAX_CONCURRENT", "2")

	cfg, err := common.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/capture", cfg.Database.DSN)
	assert.Equal(t, 2, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, []string{"/shots"}, cfg.Ingest.WatchDirs)
	assert.False(t, cfg.Pipeline.KeepAttachment)
	assert.True(t, cfg.LLM.Lenient)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := common.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*common.Config)
		wantErr bool
	}{
		{name: "defaults ok", mutate: func(*common.Config) {}},
		{name: "bad driver", mutate: func(c *common.Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *common.Config) { c.Pipeline.MaxConcurrent = 0 }, wantErr: true},
		{name: "llm without key", mutate: func(c *common.Config) {
			c.Semantic.Backend = "llm"
			c.LLM.APIKey = ""
		}, wantErr: true},
		{name: "llm with key", mutate: func(c *common.Config) {
			c.Semantic.Backend = "llm"
			c.LLM.APIKey = "sk-test"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := common.LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
