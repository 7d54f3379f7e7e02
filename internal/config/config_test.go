package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/config"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixundfertig.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overlay(t *testing.T) {
	path := writeConfig(t, `
[render]
margin_x = 25.0
due_days = 30
small_business_disclaimer = "Kein Ausweis der Umsatzsteuer."
fold_marks = [87.0, 192.0]
core_fonts = true

[server]
addr = ":9090"

[logos]
dir = "/srv/logos"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 25.0, cfg.Render.MarginX, 1e-9)
	assert.Equal(t, 30, cfg.Render.DueDays)
	assert.Equal(t, "Kein Ausweis der Umsatzsteuer.", cfg.Render.SmallBusinessDisclaimer)
	assert.Equal(t, [2]float64{87, 192}, cfg.Render.FoldMarks)
	assert.True(t, cfg.Render.CoreFonts)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/srv/logos", cfg.Logos.Dir)

	// untouched keys keep their defaults
	assert.InDelta(t, 0.6, cfg.Render.DescriptionRatio, 1e-9)
	assert.Equal(t, "release", cfg.Server.Mode)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "syntax", content: "[render\nmargin_x = 1"},
		{name: "unknown key", content: "[render]\nmargin_z = 1.0"},
		{name: "ratios", content: "[render]\ndescription_ratio = 0.8", field: "column_ratios"},
		{name: "font size", content: "[render]\ntext_font_size = 0.0", field: "text_font_size"},
		{name: "server mode", content: "[server]\nmode = \"fast\"", field: "server.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)

			if tt.field != "" {
				var ve *model.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{config.EnvLogoDir: "/tmp/logos"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.Default().ApplyEnv(lookup)
	assert.Equal(t, "/tmp/logos", cfg.Logos.Dir)

	cfg = config.Default().ApplyEnv(func(string) (string, bool) { return "", false })
	assert.Empty(t, cfg.Logos.Dir)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := config.Default()
	cfg.Render.DueDays = 7
	cfg.Logos.Dir = "logos"

	require.NoError(t, config.Save(path, cfg))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
