package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toi.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
keep_image = true
full_pageset2 = true
image_size_limit = 4096
extra_pages_allowance = 16
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.KeepImage)
	require.True(t, cfg.FullPageset2)
	require.EqualValues(t, 4096, cfg.ImageSizeLimit)
	require.Equal(t, 16, cfg.ExtraPagesAllowance)
	require.Equal(t, 1, cfg.MaxShrinkRetries) // untouched default
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestToPolicyProjectsEngineFields(t *testing.T) {
	cfg := Default()
	cfg.KeepImage = true
	cfg.RootDevice = 0x0801

	policy := cfg.ToPolicy()
	require.True(t, policy.KeepImage)
	require.EqualValues(t, 0x0801, policy.RootDevice)
	require.Equal(t, cfg.ExtraPagesAllowance, policy.ExtraPagesAllowance)
}
