// Package model loads glTF models and turns them into GPU-ready meshes.
// Node transforms are baked into the vertices at import time, so a loaded
// model is a flat mesh list with a shared, deduplicated texture registry.
package model

import (
	"strings"

	"github.com/Faultbox/sceneview/pkg/math"
)

// Vertex is the interleaved GPU vertex layout. Positions and basis
// vectors are in model space with node transforms already applied.
// Joints and weights are parsed and uploaded but not evaluated.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	TexCoord  [2]float32
	Tangent   [3]float32
	Bitangent [3]float32
	Joints    [4]uint16
	Weights   [4]float32
}

// TextureKind classifies what a texture contributes to shading.
type TextureKind int

const (
	KindBaseColor TextureKind = iota
	KindNormal
	KindMetallicRoughness
	KindSpecular
	KindHeight
)

// String returns the kind name used in logs.
func (k TextureKind) String() string {
	switch k {
	case KindBaseColor:
		return "base-color"
	case KindNormal:
		return "normal"
	case KindMetallicRoughness:
		return "metallic-roughness"
	case KindSpecular:
		return "specular"
	case KindHeight:
		return "height"
	default:
		return "unknown"
	}
}

// UVTransform remaps texture coordinates before sampling
// (KHR_texture_transform). The zero value is not valid; use
// IdentityUVTransform.
type UVTransform struct {
	Offset   math.Vec2
	Scale    math.Vec2
	Rotation float32
}

// IdentityUVTransform returns the no-op UV transform.
func IdentityUVTransform() UVTransform {
	return UVTransform{Scale: math.Vec2{X: 1, Y: 1}}
}

// Texture is a GPU texture owned by the model's registry. Handle 0 means
// the image failed to load; draw code treats the slot as unbound.
type Texture struct {
	Handle uint32
	Kind   TextureKind
	Path   string
	UV     UVTransform
}

// Material is the per-mesh shading snapshot taken at import time.
type Material struct {
	BaseColorFactor [4]float32
	MetallicFactor  float32
	RoughnessFactor float32
	Transparent     bool
}

// DefaultMaterial returns the glTF default PBR factors.
func DefaultMaterial() Material {
	return Material{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
	}
}

// transparentKeywords marks textures whose file name implies blending
// even when the material factors do not say so. Asset packs are
// inconsistent about declaring alpha modes.
var transparentKeywords = []string{"glass", "alpha", "transp"}

// DeriveTransparency decides whether a mesh joins the sorted blended
// pass: a base-color alpha below ~1, a declared BLEND alpha mode, or a
// texture path containing a transparency keyword.
func DeriveTransparency(alpha float32, blend bool, texturePaths []string) bool {
	if alpha < 0.999 || blend {
		return true
	}
	for _, p := range texturePaths {
		lower := strings.ToLower(p)
		for _, kw := range transparentKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
