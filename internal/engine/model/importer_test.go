package model

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/pkg/math"
)

// fakeLoader satisfies TextureLoader without a GL context. It hands out
// sequential handles and records every request.
type fakeLoader struct {
	next     uint32
	loads    []string
	bytes    map[string][]byte
	failures map[string]bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		bytes:    make(map[string][]byte),
		failures: make(map[string]bool),
	}
}

func (f *fakeLoader) Load(path string, space texture.ColorSpace) (uint32, error) {
	f.loads = append(f.loads, path)
	if f.failures[filepath.Base(path)] {
		return 0, fmt.Errorf("decode failed")
	}
	f.next++
	return f.next, nil
}

func (f *fakeLoader) LoadBytes(key string, data []byte, space texture.ColorSpace) (uint32, error) {
	f.bytes[key] = append([]byte(nil), data...)
	return f.Load(key, space)
}

// saveTriangle writes a single-triangle document to path. mutate, when
// not nil, edits the document before saving.
func saveTriangle(t *testing.T, path string, mutate func(*gltf.Document)) {
	t.Helper()

	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
	})
	normals := modeler.WriteNormal(doc, [][3]float32{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	})
	uvs := modeler.WriteTextureCoord(doc, [][2]float32{
		{0, 0}, {1, 0}, {0, 1},
	})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(indices),
			Attributes: map[string]int{
				"POSITION":   positions,
				"NORMAL":     normals,
				"TEXCOORD_0": uvs,
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}

	if mutate != nil {
		mutate(doc)
	}
	if err := gltf.Save(doc, path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.gltf"), newFakeLoader())
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestImportTriangle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.gltf")
	saveTriangle(t, path, nil)

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if m.MeshCount() != 1 {
		t.Fatalf("expected 1 mesh, got %d", m.MeshCount())
	}
	mesh := m.Meshes[0]
	if len(mesh.Vertices) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Indices) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(mesh.Indices))
	}
	if mesh.Material != DefaultMaterial() {
		t.Errorf("mesh without material should get defaults, got %+v", mesh.Material)
	}
	// Identity transform: positions pass through untouched.
	if mesh.Vertices[1].Position != [3]float32{1, 0, 0} {
		t.Errorf("vertex 1 position: got %v", mesh.Vertices[1].Position)
	}
	// Normals and UVs present: tangents were generated.
	if mesh.Vertices[0].Tangent == ([3]float32{}) {
		t.Error("expected generated tangents")
	}
}

func TestImportBakesNodeTransform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baked.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		doc.Nodes[0].Translation = [3]float64{1, 0, 0}
		doc.Nodes[0].Scale = [3]float64{2, 2, 2}
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// Baked position: scale by 2, then translate by (1,0,0).
	got := m.Meshes[0].Vertices[1].Position
	if got != [3]float32{3, 0, 0} {
		t.Errorf("expected baked position (3,0,0), got %v", got)
	}
	// Uniform scale keeps normals unchanged after renormalization.
	if n := m.Meshes[0].Vertices[0].Normal; n != [3]float32{0, 0, 1} {
		t.Errorf("expected normal (0,0,1), got %v", n)
	}
	// Centroid is computed from baked positions.
	wantCentroid := math.Vec3{X: (1 + 3 + 1) / 3.0, Y: 2 / 3.0, Z: 0}
	c := m.Meshes[0].Centroid
	if absf(c.X-wantCentroid.X) > 1e-5 || absf(c.Y-wantCentroid.Y) > 1e-5 {
		t.Errorf("centroid: got %v, want %v", c, wantCentroid)
	}
}

func TestImportBakesNonUniformScaleNormals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonuniform.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		doc.Nodes[0].Scale = [3]float64{1, 1, 4}
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// A +Z normal under z-stretch still points at exactly +Z after the
	// inverse-transpose and renormalization.
	n := m.Meshes[0].Vertices[0].Normal
	if absf(n[2]-1) > 1e-5 || absf(n[0]) > 1e-5 || absf(n[1]) > 1e-5 {
		t.Errorf("expected unit +Z normal, got %v", n)
	}
}

func TestImportBakingIsIdempotentAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		doc.Nodes[0].Translation = [3]float64{5, -1, 2}
		doc.Nodes[0].Scale = [3]float64{3, 1, 1}
	})

	first, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	second, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	for i := range first.Meshes[0].Vertices {
		a := first.Meshes[0].Vertices[i]
		b := second.Meshes[0].Vertices[i]
		if a != b {
			t.Fatalf("vertex %d differs between imports: %+v vs %+v", i, a, b)
		}
	}
}

func TestImportHierarchyComposesTransforms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hierarchy.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		// Parent scales by 2, child translates by (1,0,0): the child's
		// translation is scaled by the parent, giving 2p + (2,0,0).
		child := &gltf.Node{
			Mesh:        gltf.Index(0),
			Translation: [3]float64{1, 0, 0},
		}
		doc.Nodes[0].Mesh = nil
		doc.Nodes[0].Scale = [3]float64{2, 2, 2}
		doc.Nodes[0].Children = []int{1}
		doc.Nodes = append(doc.Nodes, child)
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if m.MeshCount() != 1 {
		t.Fatalf("expected 1 mesh, got %d", m.MeshCount())
	}

	got := m.Meshes[0].Vertices[1].Position
	if got != [3]float32{4, 0, 0} {
		t.Errorf("expected composed position (4,0,0), got %v", got)
	}
}

func TestImportExplicitMatrixNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		// Column-major scale 2 with translation (1,0,0).
		doc.Nodes[0].Matrix = [16]float64{
			2, 0, 0, 0,
			0, 2, 0, 0,
			0, 0, 2, 0,
			1, 0, 0, 1,
		}
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	got := m.Meshes[0].Vertices[1].Position
	if got != [3]float32{3, 0, 0} {
		t.Errorf("expected matrix-baked position (3,0,0), got %v", got)
	}
}

func TestImportDepthFirstOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		// Three mesh nodes: root child A (with grandchild B), then C.
		// Depth-first order is A, B, C; distinguish them by translation.
		doc.Meshes[0].Primitives[0].Material = nil
		a := &gltf.Node{Mesh: gltf.Index(0), Translation: [3]float64{10, 0, 0}, Children: []int{2}}
		b := &gltf.Node{Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}}
		c := &gltf.Node{Mesh: gltf.Index(0), Translation: [3]float64{20, 0, 0}}
		doc.Nodes[0].Mesh = nil
		doc.Nodes[0].Children = []int{1, 3}
		doc.Nodes = append(doc.Nodes, a, b, c)
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if m.MeshCount() != 3 {
		t.Fatalf("expected 3 meshes, got %d", m.MeshCount())
	}

	xs := []float32{
		m.Meshes[0].Vertices[0].Position[0],
		m.Meshes[1].Vertices[0].Position[0],
		m.Meshes[2].Vertices[0].Position[0],
	}
	// A at x=10, B at 10+1=11, C at 20.
	if xs[0] != 10 || xs[1] != 11 || xs[2] != 20 {
		t.Errorf("expected depth-first mesh order [10 11 20], got %v", xs)
	}
}

func withTexturedMaterial(uri string) func(*gltf.Document) {
	return func(doc *gltf.Document) {
		doc.Images = []*gltf.Image{{URI: uri}}
		doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
		doc.Materials = []*gltf.Material{{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		}}
		doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	}
}

func TestImportLoadsTextures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textured.gltf")
	saveTriangle(t, path, withTexturedMaterial("brick.png"))

	loader := newFakeLoader()
	m, err := Import(path, loader)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if m.TextureCount() != 1 {
		t.Fatalf("expected 1 registry texture, got %d", m.TextureCount())
	}
	tex := m.Textures[0]
	if tex.Kind != KindBaseColor {
		t.Errorf("expected base-color kind, got %v", tex.Kind)
	}
	if tex.Handle == 0 {
		t.Error("expected a valid handle")
	}
	if want := filepath.Join(dir, "brick.png"); tex.Path != want {
		t.Errorf("texture path: got %s, want %s", tex.Path, want)
	}
	if len(m.Meshes[0].Textures) != 1 || m.Meshes[0].Textures[0] != tex {
		t.Error("mesh should reference the registry texture")
	}
}

func TestImportDeduplicatesTexturesByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		// Two materials, two document textures, one shared image file.
		// Two mesh nodes use one material each.
		doc.Images = []*gltf.Image{{URI: "shared.png"}}
		doc.Textures = []*gltf.Texture{
			{Source: gltf.Index(0)},
			{Source: gltf.Index(0)},
		}
		doc.Materials = []*gltf.Material{
			{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			}},
			{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 1},
			}},
		}
		doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
		second := &gltf.Node{Mesh: gltf.Index(1)}
		// Duplicate the mesh so each material is used once.
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Primitives: []*gltf.Primitive{{
				Indices:    doc.Meshes[0].Primitives[0].Indices,
				Attributes: doc.Meshes[0].Primitives[0].Attributes,
				Material:   gltf.Index(1),
			}},
		})
		doc.Nodes = append(doc.Nodes, second)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 1)
	})

	loader := newFakeLoader()
	m, err := Import(path, loader)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if m.TextureCount() != 1 {
		t.Errorf("expected 1 deduplicated texture, got %d", m.TextureCount())
	}
	if len(loader.loads) != 1 {
		t.Errorf("expected 1 loader call, got %d (%v)", len(loader.loads), loader.loads)
	}
	if len(m.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(m.Meshes))
	}
	if m.Meshes[0].Textures[0] != m.Meshes[1].Textures[0] {
		t.Error("both meshes should share the registry texture")
	}
}

func TestImportTextureFailureIsNonFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badtex.gltf")
	saveTriangle(t, path, withTexturedMaterial("corrupt.png"))

	loader := newFakeLoader()
	loader.failures["corrupt.png"] = true

	m, err := Import(path, loader)
	if err != nil {
		t.Fatalf("texture failure should not fail the import: %v", err)
	}
	if len(m.Meshes[0].Textures) != 0 {
		t.Errorf("failed texture should leave the slot unbound, got %d textures",
			len(m.Meshes[0].Textures))
	}
	if m.TextureCount() != 0 {
		t.Errorf("failed texture should not enter the registry, got %d", m.TextureCount())
	}
}

func TestImportTransparencyFromAlphaMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blend.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		doc.Materials = []*gltf.Material{{AlphaMode: gltf.AlphaBlend}}
		doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !m.Meshes[0].Material.Transparent {
		t.Error("BLEND alpha mode should mark the mesh transparent")
	}
}

func TestImportTransparencyFromTexturePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glassy.gltf")
	saveTriangle(t, path, withTexturedMaterial("glass_pane.png"))

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !m.Meshes[0].Material.Transparent {
		t.Error("glass texture path should mark the mesh transparent")
	}
}

func TestImportUVTransform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uv.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		withTexturedMaterial("brick.png")(doc)
		doc.Materials[0].PBRMetallicRoughness.BaseColorTexture.Extensions = gltf.Extensions{
			textureTransformExt: map[string]any{
				"offset":   []float64{0.5, 0.25},
				"scale":    []float64{2, 2},
				"rotation": 0.5,
			},
		}
	})

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	uv := m.Textures[0].UV
	if uv.Offset.X != 0.5 || uv.Offset.Y != 0.25 {
		t.Errorf("offset: got %v", uv.Offset)
	}
	if uv.Scale.X != 2 || uv.Scale.Y != 2 {
		t.Errorf("scale: got %v", uv.Scale)
	}
	if uv.Rotation != 0.5 {
		t.Errorf("rotation: got %f", uv.Rotation)
	}
}

func TestImportEmbeddedDataURITexture(t *testing.T) {
	payload := []byte("fake-png-bytes")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	path := filepath.Join(t.TempDir(), "embedded.gltf")
	saveTriangle(t, path, func(doc *gltf.Document) {
		doc.Images = []*gltf.Image{{URI: uri}}
		doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
		doc.Materials = []*gltf.Material{{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		}}
		doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	})

	loader := newFakeLoader()
	m, err := Import(path, loader)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if m.TextureCount() != 1 {
		t.Fatalf("expected 1 registry texture, got %d", m.TextureCount())
	}
	key := m.Textures[0].Path
	if !strings.Contains(key, "#image0") {
		t.Errorf("embedded texture key should carry the image index, got %s", key)
	}
	if got := loader.bytes[key]; string(got) != string(payload) {
		t.Errorf("decoded payload: got %q, want %q", got, payload)
	}
}

func TestImportEmptySceneWarnsNotFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gltf")
	doc := gltf.NewDocument()
	if err := gltf.Save(doc, path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}

	m, err := Import(path, newFakeLoader())
	if err != nil {
		t.Fatalf("empty scene should import: %v", err)
	}
	if m.MeshCount() != 0 {
		t.Errorf("expected 0 meshes, got %d", m.MeshCount())
	}
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
