package wishlistops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesthegreati/WishlistOps-sub001/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Game = "Hollow Depths"
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	return cfg
}

func TestNew(t *testing.T) {
	pipeline, err := New(testConfig(t), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, pipeline)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Banner.Width = 0

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownCropMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Banner.CropMode = "diagonal"

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownLogoPosition(t *testing.T) {
	cfg := testConfig(t)
	cfg.Banner.LogoPosition = "middle"

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewMissingLogoFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Banner.LogoPath = filepath.Join(t.TempDir(), "missing.png")

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewLoadsLogo(t *testing.T) {
	cfg := testConfig(t)
	logoPath := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(logoPath, []byte("png-bytes"), 0644))
	cfg.Banner.LogoPath = logoPath

	pipeline, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), pipeline.request.Logo)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
