package main

import (
	"bytes"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadParams(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "params.toml")
	fromFile := config.Default()
	fromFile.Samples = 7
	fromFile.Sampler = "eyelight"
	require.NoError(t, config.Save(configPath, fromFile))

	tests := []struct {
		name      string
		args      []string
		check     func(t *testing.T, p config.Params)
		expectErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, p config.Params) {
				assert.Equal(t, config.Default(), p)
			},
		},
		{
			name: "params file",
			args: []string{"-config", configPath},
			check: func(t *testing.T, p config.Params) {
				assert.Equal(t, 7, p.Samples)
				assert.Equal(t, "eyelight", p.Sampler)
			},
		},
		{
			name: "flags override the file",
			args: []string{"-config", configPath, "-samples", "3", "-sampler", "path", "-resolution", "64"},
			check: func(t *testing.T, p config.Params) {
				assert.Equal(t, 3, p.Samples)
				assert.Equal(t, "path", p.Sampler)
				assert.Equal(t, 64, p.Resolution)
			},
		},
		{
			name: "scene list and batch",
			args: []string{"-scene", "builtin:cornell,room.yaml", "-all", "-output", "out/r.png"},
			check: func(t *testing.T, p config.Params) {
				assert.Equal(t, []string{"builtin:cornell", "room.yaml"}, p.Scenes)
				assert.True(t, p.SaveBatch)
				assert.Equal(t, "out/r.png", p.Output)
			},
		},
		{name: "unknown sampler", args: []string{"-sampler", "bdpt"}, expectErr: true},
		{name: "missing params file", args: []string{"-config", filepath.Join(dir, "missing.toml")}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			require.NoError(t, err)
			p, err := loadParams(opts)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestParseFlagsRejectsUnknownFlags(t *testing.T) {
	_, err := parseFlags([]string{"-teapot"}, io.Discard)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, scene string
		batch         bool
		want          string
	}{
		{"out.png", "builtin:cornell", false, "out.png"},
		{"out.png", "builtin:cornell", true, "out-cornell.png"},
		{"renders/out.png", "scenes/room.yaml", true, "renders/out-room.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputPath(tt.output, tt.scene, tt.batch))
	}
}

func TestRenderSavesEveryScene(t *testing.T) {
	dir := t.TempDir()
	params := config.Default()
	params.Scenes = []string{"builtin:cornell", "builtin:spheres"}
	params.Resolution = 16
	params.Samples = 1
	params.Sampler = "eyelight"
	params.TileSize = 8
	params.Workers = 2
	params.Output = filepath.Join(dir, "renders", "out.png")
	params.SaveBatch = true

	written, err := render(params, session.Options{Logger: quietLogger()}, quietLogger())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "renders", "out-cornell.png"),
		filepath.Join(dir, "renders", "out-spheres.png"),
	}, written)

	for _, path := range written {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 16, max(img.Bounds().Dx(), img.Bounds().Dy()))
	}
}

func TestRenderSingleScene(t *testing.T) {
	params := config.Default()
	params.Resolution = 16
	params.Samples = 1
	params.Sampler = "eyelight"
	params.Output = filepath.Join(t.TempDir(), "out.png")

	written, err := render(params, session.Options{Logger: quietLogger()}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{params.Output}, written)
}

func TestListScenes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listScenes(&buf, quietLogger()))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Built-in Scenes:"))
	assert.Contains(t, out, "builtin:cornell")
}
