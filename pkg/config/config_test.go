package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	assert.Equal(t, 64, p.Samples)
	assert.Equal(t, 2, p.PreviewRatio)
	assert.Len(t, p.Scenes, 3)
	assert.Equal(t, 360, p.PreviewResolution())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero samples", func(p *Params) { p.Samples = 0 }},
		{"tiny resolution", func(p *Params) { p.Resolution = 2 }},
		{"unknown sampler", func(p *Params) { p.Sampler = "bidir" }},
		{"threshold above one", func(p *Params) { p.BrushThreshold = 1.5 }},
		{"negative threshold", func(p *Params) { p.BrushThreshold = -0.1 }},
		{"no scenes", func(p *Params) { p.Scenes = nil }},
		{"zero preview ratio", func(p *Params) { p.PreviewRatio = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}

func TestSchemaNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Schema() {
		assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
		seen[f.Name] = true
	}
	for _, name := range []string{"samples", "resolution", "camera", "previewRatio", "addsky", "scenes"} {
		assert.True(t, seen[name], "schema is missing %s", name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")

	p := Default()
	p.Samples = 16
	p.Camera = "side"
	p.Scenes = []string{"a.yaml", "b.yaml"}
	p.AddSky = true
	require.NoError(t, Save(path, p))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("samples = 8\ncamera = \"top\"\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Samples)
	assert.Equal(t, "top", p.Camera)
	assert.Equal(t, Default().Resolution, p.Resolution)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("samples = \"many\""), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("samples = -1"), 0o644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, Save(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Params, 10)
	require.NoError(t, Watch(ctx, path, nil, func(p Params) { changes <- p }))

	p := Default()
	p.Samples = 12
	require.NoError(t, Save(path, p))

	// Truncation may be observed before the write lands
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if got.Samples == 12 {
				return
			}
		case <-timeout:
			t.Fatal("timeout waiting for params change")
		}
	}
}
