package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdg/cue/audio"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, audio.DefaultParams(), cfg.Params())
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bpm": 90, "audio": {"bufferSize": 256}}`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.BPM)
	assert.Equal(t, 256, cfg.Audio.BufferSize)
	assert.Equal(t, 44100.0, cfg.Audio.SampleRate)
	assert.Equal(t, "*.wav", cfg.Kit.Sounds)
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string]string{
		"syntax.json":   `{"bpm": `,
		"capacity.json": `{"audio": {"eventCapacity": 10}}`,
		"bpm.json":      `{"bpm": 0}`,
		"key.json":      `{"kit": {"rootKey": 200}}`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
		_, err := LoadFile(path)
		assert.Error(t, err, name)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.BPM = 140
	cfg.Kit.Preset = "tight-kit"

	require.NoError(t, cfg.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
