package model

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/pkg/math"
)

// Mesh is one draw batch: baked vertices, triangle indices, the textures
// it samples and its material snapshot.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Textures []*Texture
	Material Material

	// Centroid is the mean baked vertex position, used to sort the
	// blended pass back to front.
	Centroid math.Vec3

	vao, vbo, ebo uint32
}

// Upload creates the VAO/VBO/EBO for the mesh. Idempotent; later calls
// are no-ops.
func (m *Mesh) Upload() {
	if m.vao != 0 {
		return
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	vertexSize := int(unsafe.Sizeof(Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	stride := int32(vertexSize)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.Position))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.Normal))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.TexCoord))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.Tangent))
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointerWithOffset(4, 3, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.Bitangent))
	gl.EnableVertexAttribArray(5)
	gl.VertexAttribIPointerWithOffset(5, 4, gl.UNSIGNED_SHORT, stride, unsafe.Offsetof(Vertex{}.Joints))
	gl.EnableVertexAttribArray(6)
	gl.VertexAttribPointerWithOffset(6, 4, gl.FLOAT, false, stride, unsafe.Offsetof(Vertex{}.Weights))

	gl.BindVertexArray(0)
}

// drawBindings is the resolved texture unit assignment for one draw.
// Unit order is fixed: 0 base color, 1 normal, 2 metallic-roughness,
// 3 height.
type drawBindings struct {
	baseColor         *Texture
	normal            *Texture
	metallicRoughness *Texture
	height            *Texture
}

// resolveDrawBindings picks the first valid texture per kind. When no
// base-color texture is tagged, the first valid texture of any kind
// stands in so the mesh still renders textured.
func resolveDrawBindings(textures []*Texture) drawBindings {
	var b drawBindings
	var firstValid *Texture

	for _, t := range textures {
		if t == nil || t.Handle == 0 {
			continue
		}
		if firstValid == nil {
			firstValid = t
		}
		switch t.Kind {
		case KindBaseColor:
			if b.baseColor == nil {
				b.baseColor = t
			}
		case KindNormal:
			if b.normal == nil {
				b.normal = t
			}
		case KindMetallicRoughness:
			if b.metallicRoughness == nil {
				b.metallicRoughness = t
			}
		case KindHeight:
			if b.height == nil {
				b.height = t
			}
		}
	}

	if b.baseColor == nil {
		b.baseColor = firstValid
	}
	return b
}

// Draw binds the mesh textures and material uniforms and issues one
// indexed draw. VAO binding and the active texture unit are restored
// before returning.
func (m *Mesh) Draw(p *shader.Program) {
	if m.vao == 0 {
		return
	}

	b := resolveDrawBindings(m.Textures)

	bindUnit := func(unit int32, t *Texture) {
		gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
		if t != nil {
			gl.BindTexture(gl.TEXTURE_2D, t.Handle)
		} else {
			gl.BindTexture(gl.TEXTURE_2D, 0)
		}
	}

	bindUnit(0, b.baseColor)
	bindUnit(1, b.normal)
	bindUnit(2, b.metallicRoughness)
	bindUnit(3, b.height)

	p.SetInt("uBaseColorMap", 0)
	p.SetInt("uNormalMap", 1)
	p.SetInt("uMetallicRoughnessMap", 2)
	p.SetInt("uHeightMap", 3)

	p.SetBool("uHasBaseColor", b.baseColor != nil)
	p.SetBool("uHasNormalMap", b.normal != nil)
	p.SetBool("uHasMetallicRoughness", b.metallicRoughness != nil)
	p.SetBool("uHasHeightMap", b.height != nil)

	f := m.Material.BaseColorFactor
	p.SetVec4("uBaseColorFactor", f[0], f[1], f[2], f[3])
	p.SetFloat("uMetallic", m.Material.MetallicFactor)
	p.SetFloat("uRoughness", m.Material.RoughnessFactor)

	setUVTransform(p, "uBaseColorUV", b.baseColor)
	setUVTransform(p, "uNormalUV", b.normal)
	setUVTransform(p, "uMetallicRoughnessUV", b.metallicRoughness)

	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(m.Indices)), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
}

// setUVTransform writes a texture's UV remap as <name> = vec4(offset,
// scale) and <name>Rot. Unbound slots get the identity.
func setUVTransform(p *shader.Program, name string, t *Texture) {
	uv := IdentityUVTransform()
	if t != nil {
		uv = t.UV
	}
	p.SetVec4(name, uv.Offset.X, uv.Offset.Y, uv.Scale.X, uv.Scale.Y)
	p.SetFloat(name+"Rot", uv.Rotation)
}

// Destroy deletes the mesh's GPU buffers.
func (m *Mesh) Destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
}
