package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/resources"
	"github.com/g3n/engine/loader/obj"
)

const quadOBJ = `# a textured quad
mtllib quad.mtl
o Quad
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl Stone
f 1/1/1 2/2/1 3/3/1 4/4/1
`

const quadMTL = `newmtl Stone
Kd 1 1 1
map_Kd stone.png
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLoader(dir string) Loader {
	return NewLoader(BackendTypeOBJ, WithResolver(resources.NewResolver(dir)), WithWorkers(2))
}

func TestLoadQuad(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"quad.obj": quadOBJ, "quad.mtl": quadMTL})
	writePNG(t, filepath.Join(dir, "stone.png"), 4, 2)

	m, err := newTestLoader(dir).Load("quad.obj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "quad.obj" || len(m.Meshes) != 1 || len(m.Materials) != 1 {
		t.Fatalf("model %q: %d meshes, %d materials", m.Name, len(m.Meshes), len(m.Materials))
	}

	mesh := m.Meshes[0]
	if mesh.Name != "Quad" || mesh.MaterialIndex != 0 {
		t.Fatalf("mesh %q material %d", mesh.Name, mesh.MaterialIndex)
	}
	if len(mesh.Vertices) != 4 {
		t.Fatalf("%d vertices, want 4", len(mesh.Vertices))
	}
	wantIndices := []uint32{0, 1, 2, 0, 2, 3}
	if len(mesh.Indices) != len(wantIndices) {
		t.Fatalf("indices %v", mesh.Indices)
	}
	for i, idx := range wantIndices {
		if mesh.Indices[i] != idx {
			t.Fatalf("indices %v, want %v", mesh.Indices, wantIndices)
		}
	}
	if got := mesh.Vertices[0].TexCoords; got != [2]float32{0, 1} {
		t.Errorf("v flip: texcoords %v, want [0 1]", got)
	}
	if got := mesh.Vertices[2].TexCoords; got != [2]float32{1, 0} {
		t.Errorf("v flip: texcoords %v, want [1 0]", got)
	}
	if got := mesh.Vertices[1].Normal; got != [3]float32{0, 0, 1} {
		t.Errorf("normal %v", got)
	}

	mat := m.Materials[0]
	if mat.Name != "Stone" || mat.DiffuseTexturePath != "stone.png" {
		t.Fatalf("material %+v", mat.Name)
	}
	if mat.Diffuse.Width != 4 || mat.Diffuse.Height != 2 || !mat.Diffuse.Valid() {
		t.Fatalf("diffuse %dx%d valid=%v", mat.Diffuse.Width, mat.Diffuse.Height, mat.Diffuse.Valid())
	}
}

func TestLoadSplitsObjectsAndMaterials(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"models/pair.obj": `mtllib pair.mtl
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vn 0 0 1
o First
usemtl Blue
f 1//1 2//1 3//1
o Second
usemtl Red
f 2//1 4//1 3//1
usemtl Blue
f 1 2 4
`,
		"models/pair.mtl": "newmtl Red\nmap_Kd tex/shared.png\n\nnewmtl Blue\nKd 0 0 1\nmap_Kd tex/shared.png\n",
	})
	if err := os.MkdirAll(filepath.Join(dir, "models", "tex"), 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "models", "tex", "shared.png"), 2, 2)

	m, err := newTestLoader(dir).Load("models/pair.obj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Materials) != 2 || m.Materials[0].Name != "Blue" || m.Materials[1].Name != "Red" {
		t.Fatalf("materials %+v", m.Materials)
	}
	for _, mat := range m.Materials {
		if !mat.Diffuse.Valid() {
			t.Fatalf("material %q not decoded", mat.Name)
		}
	}

	want := []struct {
		name     string
		material int
		verts    int
	}{
		{"First", 0, 3},
		{"Second", 1, 3},
		{"Second", 0, 3},
	}
	if len(m.Meshes) != len(want) {
		t.Fatalf("%d meshes, want %d", len(m.Meshes), len(want))
	}
	for i, w := range want {
		got := m.Meshes[i]
		if got.Name != w.name || got.MaterialIndex != w.material || len(got.Vertices) != w.verts {
			t.Errorf("mesh %d = %q material %d verts %d, want %+v", i, got.Name, got.MaterialIndex, len(got.Vertices), w)
		}
	}

	if got := m.Meshes[1].Vertices[0].Position; got != [3]float32{1, 0, 0} {
		t.Errorf("first corner of Second at %v, want [1 0 0]", got)
	}
	// "v" only faces have zero texcoords and normals.
	last := m.Meshes[2].Vertices[0]
	if last.TexCoords != [2]float32{} || last.Normal != [3]float32{} {
		t.Errorf("vertex %+v, want zero texcoords and normal", last)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		png   bool
		want  error
		match string
	}{
		{
			name:  "no faces",
			files: map[string]string{"m.obj": "o M\nv 0 0 0\nv 1 0 0\nv 0 1 0\n"},
			want:  ErrNoMeshes,
		},
		{
			name:  "material without texture",
			files: map[string]string{"m.obj": "mtllib m.mtl\no M\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", "m.mtl": "newmtl Plain\nKd 1 0 0\n"},
			want:  ErrMissingTexture,
		},
		{
			name:  "texture file missing",
			files: map[string]string{"m.obj": "mtllib m.mtl\no M\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", "m.mtl": "newmtl Gone\nmap_Kd gone.png\n"},
			want:  ErrMissingTexture,
		},
		{
			name:  "no material at all",
			files: map[string]string{"m.obj": "o M\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"},
			want:  model.ErrInvalidMaterialIndex,
		},
		{
			name:  "index out of range",
			files: map[string]string{"m.obj": "o M\nv 0 0 0\nf 1 2 3\n"},
			match: "out of range",
		},
		{
			name:  "bad number",
			files: map[string]string{"m.obj": "o M\nv 0 zero 0\n"},
		},
		{
			name:  "missing library",
			files: map[string]string{"m.obj": "mtllib nowhere.mtl\no M\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"},
			match: "nowhere.mtl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			_, err := newTestLoader(dir).Load("m.obj")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err %v, want %v", err, tt.want)
			}
			if tt.match != "" && !strings.Contains(err.Error(), tt.match) {
				t.Fatalf("err %q does not mention %q", err, tt.match)
			}
		})
	}
}

func TestLoadCorruptTexture(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"quad.obj": quadOBJ, "quad.mtl": quadMTL, "stone.png": "not a png"})

	if _, err := newTestLoader(dir).Load("quad.obj"); err == nil || !strings.Contains(err.Error(), "stone.png") {
		t.Fatalf("err %v", err)
	}
}

func TestLoadCachesByName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"quad.obj": quadOBJ, "quad.mtl": quadMTL})
	writePNG(t, filepath.Join(dir, "stone.png"), 1, 1)

	l := newTestLoader(dir)
	first, err := l.Load("quad.obj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "quad.obj")); err != nil {
		t.Fatal(err)
	}
	second, err := l.Load("quad.obj")
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if first != second || l.Get("quad.obj") != first {
		t.Fatal("cache miss")
	}
	if len(l.Models()) != 1 {
		t.Fatalf("models %d", len(l.Models()))
	}
}

func TestLoadReaderAndPrepopulatedCache(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"quad.mtl": quadMTL})
	writePNG(t, filepath.Join(dir, "stone.png"), 1, 1)

	pre := &model.ImportedModel{Name: "preset"}
	l := NewLoader(BackendTypeOBJ, WithResolver(resources.NewResolver(dir)), WithModel("preset", pre))
	if l.Get("preset") != pre {
		t.Fatal("WithModel not cached")
	}

	m, err := l.LoadReader("streamed", strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if m.Name != "streamed" || len(m.Meshes) != 1 || l.Get("streamed") != m {
		t.Fatalf("model %+v", m.Name)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := newTestLoader(t.TempDir()).Load("scene.fbx"); err == nil || !strings.Contains(err.Error(), ".fbx") {
		t.Fatalf("err %v", err)
	}
}

func TestSplitMeshesDeduplicatesCorners(t *testing.T) {
	dec := &obj.Decoder{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Uvs:      []float32{0.25, 0.75},
		Objects: []obj.Object{{
			Faces: []obj.Face{
				// The second face shares corners 1 and 3 with the first; 99 is not a decoded uv.
				{Vertices: []int{0, 1, 2}, Uvs: []int{0, 0, 0}, Normals: []int{-1, -1, -1}, Material: "A"},
				{Vertices: []int{0, 2, 3}, Uvs: []int{0, 0, 99}, Normals: []int{-1, -1, -1}, Material: "A"},
			},
		}},
	}
	if err := validateCorners(dec); err != nil {
		t.Fatalf("validateCorners: %v", err)
	}

	meshes := splitMeshes(dec)
	if len(meshes) != 1 {
		t.Fatalf("%d meshes, want 1", len(meshes))
	}
	m := meshes[0]
	if len(m.vertices) != 4 || len(m.indices) != 6 {
		t.Fatalf("%d vertices %d indices, want 4 and 6", len(m.vertices), len(m.indices))
	}
	if m.indices[3] != 0 || m.indices[4] != 2 {
		t.Errorf("shared corners not reused: %v", m.indices)
	}
	if got := m.vertices[0].TexCoords; got != [2]float32{0.25, 0.25} {
		t.Errorf("texcoords %v, want [0.25 0.25]", got)
	}
	if got := m.vertices[3].TexCoords; got != [2]float32{} {
		t.Errorf("absent uv gave %v", got)
	}

	dec.Objects[0].Faces[1].Vertices[2] = 4
	if err := validateCorners(dec); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("err %v", err)
	}
}
