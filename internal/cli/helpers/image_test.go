package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/mcumon/internal/config"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
	"github.com/coral-mesh/mcumon/internal/testutil"
)

func TestResolveImage(t *testing.T) {
	t.Setenv("CARGO_TARGET_DIR", "")
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte("[package]\nname = \"app\"\n"), 0600))

	tests := []struct {
		name   string
		mutate func(*config.MonitorConfig)
		want   string
	}{
		{
			name:   "cargo disabled",
			mutate: func(c *config.MonitorConfig) {},
			want:   "",
		},
		{
			name: "explicit image wins",
			mutate: func(c *config.MonitorConfig) {
				c.Cargo.Enabled = true
				c.Symbols.ELF = "build/app.elf"
			},
			want: "build/app.elf",
		},
		{
			name: "esp-idf build of the project",
			mutate: func(c *config.MonitorConfig) {
				c.Cargo.Enabled = true
				c.Cargo.Framework = "esp-idf"
			},
			want: filepath.Join(project, "target", "xtensa-esp32-espidf", "debug", "app"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultMonitorConfig()
			cfg.Cargo.Dir = project
			tt.mutate(cfg)

			require.NoError(t, ResolveImage(cfg, testutil.NewTestLogger(t)))
			assert.Equal(t, tt.want, cfg.Symbols.ELF)
		})
	}
}

func TestResolveImage_UnknownTarget(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte("[package]\nname = \"app\"\n"), 0600))

	cfg := config.DefaultMonitorConfig()
	cfg.Serial.Chip = "dtr-pulse"
	cfg.Cargo = config.CargoConfig{Enabled: true, Dir: project}

	err := ResolveImage(cfg, testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, mcuerrors.ExitInvalidArgument, mcuerrors.CodeOf(err))
	assert.Empty(t, cfg.Symbols.ELF)
}
