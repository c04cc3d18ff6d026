package model

import (
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/pkg/math"
)

// Model is a flat list of baked meshes plus the texture registry they
// share. Every texture a mesh references appears exactly once in the
// registry.
type Model struct {
	Meshes   []*Mesh
	Textures []*Texture

	registry map[string]*Texture
}

func newModel() *Model {
	return &Model{registry: make(map[string]*Texture)}
}

func (m *Model) lookupTexture(path string) *Texture {
	return m.registry[path]
}

func (m *Model) registerTexture(t *Texture) {
	m.registry[t.Path] = t
	m.Textures = append(m.Textures, t)
}

// MeshCount returns the number of meshes.
func (m *Model) MeshCount() int {
	return len(m.Meshes)
}

// VertexCount returns the total vertex count across meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Vertices)
	}
	return n
}

// TextureCount returns the number of distinct textures.
func (m *Model) TextureCount() int {
	return len(m.Textures)
}

// Upload creates GPU buffers for every mesh. Idempotent.
func (m *Model) Upload() {
	for _, mesh := range m.Meshes {
		mesh.Upload()
	}
}

// transparentOrder returns indices into meshes ordered back to front by
// the distance from viewer to each mesh's world-space centroid. The sort
// is stable, so equal distances keep registration order.
func transparentOrder(meshes []*Mesh, world math.Mat4, viewer math.Vec3) []int {
	order := make([]int, len(meshes))
	dist := make([]float32, len(meshes))
	for i, mesh := range meshes {
		order[i] = i
		dist[i] = world.TransformVec3(mesh.Centroid).Distance(viewer)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] > dist[order[b]]
	})
	return order
}

// Draw renders the model in two passes: opaque meshes in registration
// order, then transparent meshes back to front with depth writes off.
// The world matrix is set as uModel and also positions the centroids for
// the sort.
func (m *Model) Draw(p *shader.Program, world math.Mat4, viewer math.Vec3) {
	p.SetMat4("uModel", world)

	var transparent []*Mesh
	for _, mesh := range m.Meshes {
		if mesh.Material.Transparent {
			transparent = append(transparent, mesh)
			continue
		}
		mesh.Draw(p)
	}

	if len(transparent) == 0 {
		return
	}

	gl.DepthMask(false)
	for _, i := range transparentOrder(transparent, world, viewer) {
		transparent[i].Draw(p)
	}
	gl.DepthMask(true)
}

// Destroy releases the model's GPU buffers. Texture handles stay with
// the loader that uploaded them.
func (m *Model) Destroy() {
	for _, mesh := range m.Meshes {
		mesh.Destroy()
	}
}
