package loaders

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

const boxScene = `# Scene: Textured Box
# Description: A cube on a quad floor
# Group: Tests
name: box
cameras:
  - name: default
    frame:
      lookat: {from: [0, 2, 5], to: [0, 0, 0]}
    lens: 0.05
    aspect: 1
textures:
  - name: checker
    file: checker.png
materials:
  - name: floor
    color: [0.8, 0.8, 0.8]
    textures: {color: checker}
  - name: light
    emission: [10, 10, 10]
shapes:
  - name: floor
    generator: quad
    size: 10
  - name: cube
    generator: cube
  - name: tri
    positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    triangles: [[0, 1, 2]]
instances:
  - name: floor
    frame: {rotate: [1, 0, 0, -90]}
    shape: floor
    material: floor
  - name: cube
    frame: {translate: [0, 0.5, 0], scale: 0.5}
    shape: cube
    material: floor
  - name: lamp
    frame: {translate: [0, 3, 0]}
    shape: tri
    material: light
environments:
  - name: ambient
    emission: [0.1, 0.1, 0.1]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeChecker(t *testing.T, dir string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{G: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	require.NoError(t, SavePNG(filepath.Join(dir, "checker.png"), img))
}

func TestLoadYAMLScene(t *testing.T) {
	dir := t.TempDir()
	writeChecker(t, dir)
	path := writeFile(t, dir, "box.yaml", boxScene)

	s, err := (&SceneLoader{}).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "box", s.Name)
	require.Len(t, s.Cameras, 1)
	require.Len(t, s.Textures, 1)
	require.Len(t, s.Materials, 2)
	require.Len(t, s.Shapes, 3)
	require.Len(t, s.Instances, 3)
	require.Len(t, s.Environments, 1)

	// References resolve to the same entities
	assert.Same(t, s.Textures[0], s.Materials[0].ColorTex)
	assert.Same(t, s.Shapes[0], s.Instances[0].Shape)
	assert.Same(t, s.Materials[0], s.Instances[1].Material)
	assert.Same(t, s.Materials[1], s.Instances[2].Material)

	// Defaults and derived values
	camera := s.Cameras[0]
	assert.InDelta(t, 0.036, camera.Film, 1e-12)
	assert.InDelta(t, 29.0, camera.Focus*camera.Focus, 1e-9)
	assert.InDelta(t, 1.5, s.Materials[0].IOR, 1e-12)
	assert.InDelta(t, 1.0, s.Materials[0].Opacity, 1e-12)

	// Texture pixels are stored row by row
	tex := s.Textures[0]
	require.Equal(t, 2, tex.Width)
	require.Equal(t, 2, tex.Height)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, tex.LDR[1])
	assert.Equal(t, color.RGBA{G: 255, A: 255}, tex.LDR[2])

	// Instance frames compose scale then translation
	p := s.Instances[1].Frame.TransformPoint(s.Shapes[1].Positions[0])
	assert.InDelta(t, -0.25, p.X, 1e-9)
	assert.InDelta(t, 0.25, p.Y, 1e-9)
	assert.InDelta(t, 0.25, p.Z, 1e-9)

	// The loaded scene converts cleanly
	converted, cameraID, err := scene.Convert(s, s.Camera(""), nil)
	require.NoError(t, err)
	assert.Equal(t, scene.CameraID(0), cameraID)
	assert.Len(t, converted.Instances, 3)
}

func TestLoadRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	writeChecker(t, dir)
	writeFile(t, dir, "box.yaml", boxScene)

	s, err := (&SceneLoader{BaseDir: dir}).Load("box.yaml")
	require.NoError(t, err)
	assert.Len(t, s.Instances, 3)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{
			name: "unknown shape",
			content: `instances:
  - name: a
    shape: missing
`,
			want: ErrUnknownReference,
		},
		{
			name: "unknown material",
			content: `shapes:
  - name: s
    generator: cube
instances:
  - name: a
    shape: s
    material: missing
`,
			want: ErrUnknownReference,
		},
		{
			name: "unknown texture",
			content: `materials:
  - name: m
    textures: {color: missing}
`,
			want: ErrUnknownReference,
		},
		{
			name: "unknown environment texture",
			content: `environments:
  - name: e
    texture: missing
`,
			want: ErrUnknownReference,
		},
		{
			name: "unknown generator",
			content: `shapes:
  - name: s
    generator: torus
`,
		},
		{
			name: "unknown texture slot",
			content: `materials:
  - name: m
    textures: {glow: x}
`,
		},
		{
			name:    "malformed yaml",
			content: "cameras: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := (&SceneLoader{}).Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := (&SceneLoader{}).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuiltinScenesConvert(t *testing.T) {
	names := BuiltinNames()
	require.Equal(t, []string{"cornell", "materials", "spheres"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s, err := (&SceneLoader{}).Load(BuiltinPrefix + name)
			require.NoError(t, err)
			require.NotEmpty(t, s.Cameras)
			require.NotEmpty(t, s.Instances)

			converted, _, err := scene.Convert(s, s.Camera(""), nil)
			require.NoError(t, err)
			assert.Len(t, converted.Instances, len(s.Instances))
			assert.Len(t, converted.Environments, len(s.Environments))
		})
	}
}

func TestBuiltinReturnsFreshScenes(t *testing.T) {
	a, err := Builtin("cornell")
	require.NoError(t, err)
	b, err := Builtin("cornell")
	require.NoError(t, err)
	assert.NotSame(t, a.Instances[0], b.Instances[0])

	_, err = Builtin("teapot")
	assert.Error(t, err)
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	path := writeFile(t, dir, "garbage.png", "not an image")
	_, err = LoadImage(path)
	assert.Error(t, err)
}

func TestListScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "box.yaml", boxScene)
	writeFile(t, dir, "plain-room.yml", "name: room\n")
	writeFile(t, dir, "notes.txt", "ignored")

	scenes, err := ListScenes(dir, nil)
	require.NoError(t, err)
	require.Len(t, scenes, len(BuiltinNames())+2)

	for i, name := range BuiltinNames() {
		assert.Equal(t, BuiltinPrefix+name, scenes[i].ID)
		assert.Equal(t, BuiltinGroup, scenes[i].Group)
		assert.NotEmpty(t, scenes[i].Description)
	}

	files := scenes[len(BuiltinNames()):]
	assert.Equal(t, "Plain Room", files[0].Name)
	assert.Equal(t, FileGroup, files[0].Group)
	assert.Equal(t, "Textured Box", files[1].Name)
	assert.Equal(t, "A cube on a quad floor", files[1].Description)
	assert.Equal(t, "Tests", files[1].Group)
	assert.Equal(t, filepath.Join(dir, "box.yaml"), files[1].ID)

	// Without a directory only the built-ins are listed
	scenes, err = ListScenes(filepath.Join(dir, "missing"), nil)
	require.NoError(t, err)
	assert.Len(t, scenes, len(BuiltinNames()))
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"my_scene", "My Scene"},
		{"UPPER", "Upper"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), tt.in)
	}
}
