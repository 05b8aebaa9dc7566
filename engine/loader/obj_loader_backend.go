package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/resources"
	"github.com/g3n/engine/loader/obj"
)

// objLoaderBackend loads Wavefront OBJ files and their MTL libraries through the g3n decoder.
type objLoaderBackend struct {
	resolver resources.Resolver
}

var _ loaderBackend = &objLoaderBackend{}

// objCorner is one face corner: 0-based indices into the decoder's position, uv and normal
// arrays. -1 marks an absent uv or normal.
type objCorner struct {
	position int
	uv       int
	normal   int
}

// objMeshBuilder collects the single-indexed vertices of one mesh, deduplicated by corner.
type objMeshBuilder struct {
	name     string
	material string
	vertices []model.GPUVertex
	indices  []uint32
	lookup   map[objCorner]uint32
}

// newOBJLoaderBackend creates an OBJ backend reading through resolver.
//
// Parameters:
//   - resolver: the asset resolver
//
// Returns:
//   - *objLoaderBackend: the backend
func newOBJLoaderBackend(resolver resources.Resolver) *objLoaderBackend {
	return &objLoaderBackend{resolver: resolver}
}

func (b *objLoaderBackend) Load(name string) (*model.ImportedModel, error) {
	text, err := b.resolver.LoadString(name)
	if err != nil {
		return nil, err
	}
	return b.load(name, filepath.Dir(name), strings.NewReader(text))
}

func (b *objLoaderBackend) LoadReader(name string, r io.Reader) (*model.ImportedModel, error) {
	return b.load(name, ".", r)
}

// load decodes the OBJ stream and its material library. dir is the asset directory the mtllib
// name is relative to; map_Kd names are relative to the MTL file.
func (b *objLoaderBackend) load(name, dir string, r io.Reader) (*model.ImportedModel, error) {
	dec, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if err := validateCorners(dec); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	imported := &model.ImportedModel{Name: name}
	materialIndex, err := b.loadMaterials(imported, dir, dec.Matlib)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, mesh := range splitMeshes(dec) {
		if len(mesh.indices) == 0 {
			continue
		}
		meshName := mesh.name
		if meshName == "" {
			meshName = fmt.Sprintf("%s_mesh_%d", base, len(imported.Meshes))
		}
		idx, ok := materialIndex[mesh.material]
		if !ok && mesh.material != "" {
			log.Printf("[Loader] %s: mesh %q uses unknown material %q, falling back to material 0", name, meshName, mesh.material)
		}
		imported.Meshes = append(imported.Meshes, model.ImportedMesh{
			Name:          meshName,
			Vertices:      mesh.vertices,
			Indices:       mesh.indices,
			MaterialIndex: idx,
		})
	}
	if len(imported.Meshes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMeshes, name)
	}
	return imported, nil
}

// loadMaterials decodes the MTL library and appends its materials to imported, sorted by name.
// Every material must name a diffuse texture that exists.
func (b *objLoaderBackend) loadMaterials(imported *model.ImportedModel, dir, lib string) (map[string]int, error) {
	index := make(map[string]int)
	if lib == "" {
		return index, nil
	}
	libName := filepath.Join(dir, lib)
	text, err := b.resolver.LoadString(libName)
	if err != nil {
		return nil, fmt.Errorf("material library %s: %w", lib, err)
	}
	// The decoder only parses materials alongside an object stream, so pair the library with an empty one.
	dec, err := obj.DecodeReader(strings.NewReader(""), strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("material library %s: %w", lib, err)
	}

	names := make([]string, 0, len(dec.Materials))
	for n := range dec.Materials {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		m := dec.Materials[n]
		if m.MapKd == "" {
			return nil, fmt.Errorf("%w: material %q has no map_Kd", ErrMissingTexture, n)
		}
		texName := filepath.Join(filepath.Dir(libName), m.MapKd)
		if !b.resolver.Exists(texName) {
			return nil, fmt.Errorf("%w: material %q references %s", ErrMissingTexture, n, texName)
		}
		index[n] = len(imported.Materials)
		imported.Materials = append(imported.Materials, model.ImportedMaterial{
			Name:               n,
			DiffuseTexturePath: texName,
		})
	}
	return index, nil
}

// validateCorners checks that every face corner references a decoded position.
func validateCorners(dec *obj.Decoder) error {
	count := len(dec.Vertices) / 3
	for _, o := range dec.Objects {
		for _, face := range o.Faces {
			if len(face.Vertices) < 3 {
				return fmt.Errorf("object %q has a face with %d vertices, need at least 3", o.Name, len(face.Vertices))
			}
			for _, v := range face.Vertices {
				if v < 0 || v >= count {
					return fmt.Errorf("object %q: position index %d out of range (%d defined)", o.Name, v+1, count)
				}
			}
		}
	}
	return nil
}

// splitMeshes turns decoded objects into meshes; corners must already be validated. An object whose faces switch material is
// split into several meshes sharing its name. Faces are fan triangulated and texture v
// coordinates flipped (1 - v); missing uvs or normals become zero.
func splitMeshes(dec *obj.Decoder) []*objMeshBuilder {
	var meshes []*objMeshBuilder
	for _, o := range dec.Objects {
		var current *objMeshBuilder
		for _, face := range o.Faces {
			if current == nil || current.material != face.Material {
				current = &objMeshBuilder{name: o.Name, material: face.Material, lookup: make(map[objCorner]uint32)}
				meshes = append(meshes, current)
			}
			corners := make([]uint32, len(face.Vertices))
			for i := range face.Vertices {
				corners[i] = current.vertex(dec, cornerOf(dec, face, i))
			}
			for i := 1; i+1 < len(corners); i++ {
				current.indices = append(current.indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	return meshes
}

// cornerOf reads corner i of face, marking uv and normal indices the decoder left out of range as absent.
func cornerOf(dec *obj.Decoder, face obj.Face, i int) objCorner {
	c := objCorner{position: face.Vertices[i], uv: -1, normal: -1}
	if i < len(face.Uvs) && face.Uvs[i] >= 0 && face.Uvs[i] < len(dec.Uvs)/2 {
		c.uv = face.Uvs[i]
	}
	if i < len(face.Normals) && face.Normals[i] >= 0 && face.Normals[i] < len(dec.Normals)/3 {
		c.normal = face.Normals[i]
	}
	return c
}

// vertex returns the index of the single-indexed vertex for c, appending it on first use.
func (m *objMeshBuilder) vertex(dec *obj.Decoder, c objCorner) uint32 {
	if idx, ok := m.lookup[c]; ok {
		return idx
	}
	p := c.position * 3
	v := model.GPUVertex{Position: [3]float32{dec.Vertices[p], dec.Vertices[p+1], dec.Vertices[p+2]}}
	if c.uv >= 0 {
		t := c.uv * 2
		v.TexCoords = [2]float32{dec.Uvs[t], 1 - dec.Uvs[t+1]}
	}
	if c.normal >= 0 {
		n := c.normal * 3
		v.Normal = [3]float32{dec.Normals[n], dec.Normals[n+1], dec.Normals[n+2]}
	}
	idx := uint32(len(m.vertices))
	m.vertices = append(m.vertices, v)
	m.lookup[c] = idx
	return idx
}
