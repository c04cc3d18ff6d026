package model

import (
	"encoding/json"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/pkg/math"
)

// textureTransformExt is the KHR_texture_transform extension name.
const textureTransformExt = "KHR_texture_transform"

// specGlossExt is the legacy specular-glossiness material extension name.
const specGlossExt = "KHR_materials_pbrSpecularGlossiness"

// textureSlot is one texture reference a material makes: which document
// texture, what it is used for, and how its UVs are remapped.
type textureSlot struct {
	texture int
	kind    TextureKind
	uv      UVTransform
	space   texture.ColorSpace
}

// resolvedMaterial is the import-time view of a glTF material: shading
// factors plus the texture slots to load. Transparent is finalized later,
// once texture paths are known.
type resolvedMaterial struct {
	factors Material
	blend   bool
	slots   []textureSlot
}

// resolveMaterials flattens every material in the document into factors
// and texture slots. Malformed extension payloads fall back to defaults
// rather than failing the import.
func resolveMaterials(doc *gltf.Document) []resolvedMaterial {
	resolved := make([]resolvedMaterial, len(doc.Materials))
	for i, gm := range doc.Materials {
		rm := resolvedMaterial{factors: DefaultMaterial()}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			rm.factors.BaseColorFactor = [4]float32{
				float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3]),
			}
			rm.factors.MetallicFactor = float32(pbr.MetallicFactorOrDefault())
			rm.factors.RoughnessFactor = float32(pbr.RoughnessFactorOrDefault())

			if pbr.BaseColorTexture != nil {
				rm.slots = append(rm.slots, textureSlot{
					texture: pbr.BaseColorTexture.Index,
					kind:    KindBaseColor,
					uv:      uvTransformOf(pbr.BaseColorTexture.Extensions),
					space:   texture.SRGB,
				})
			}
			if pbr.MetallicRoughnessTexture != nil {
				rm.slots = append(rm.slots, textureSlot{
					texture: pbr.MetallicRoughnessTexture.Index,
					kind:    KindMetallicRoughness,
					uv:      uvTransformOf(pbr.MetallicRoughnessTexture.Extensions),
					space:   texture.Linear,
				})
			}
		}

		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			rm.slots = append(rm.slots, textureSlot{
				texture: *gm.NormalTexture.Index,
				kind:    KindNormal,
				uv:      uvTransformOf(gm.NormalTexture.Extensions),
				space:   texture.Linear,
			})
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			rm.slots = append(rm.slots, textureSlot{
				texture: *gm.OcclusionTexture.Index,
				kind:    KindHeight,
				uv:      uvTransformOf(gm.OcclusionTexture.Extensions),
				space:   texture.Linear,
			})
		}
		if sg := specGlossTexture(gm.Extensions); sg >= 0 {
			rm.slots = append(rm.slots, textureSlot{
				texture: sg,
				kind:    KindSpecular,
				uv:      IdentityUVTransform(),
				space:   texture.SRGB,
			})
		}

		rm.blend = gm.AlphaMode == gltf.AlphaBlend
		resolved[i] = rm
	}
	return resolved
}

// uvTransformOf reads KHR_texture_transform from a textureInfo extension
// block. Absent or malformed payloads yield the identity transform.
func uvTransformOf(ext gltf.Extensions) UVTransform {
	identity := IdentityUVTransform()
	raw, ok := ext[textureTransformExt]
	if !ok {
		return identity
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return identity
	}
	var payload struct {
		Offset   [2]float64  `json:"offset"`
		Scale    *[2]float64 `json:"scale"`
		Rotation float64     `json:"rotation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return identity
	}

	out := UVTransform{
		Offset:   math.Vec2{X: float32(payload.Offset[0]), Y: float32(payload.Offset[1])},
		Scale:    math.Vec2{X: 1, Y: 1},
		Rotation: float32(payload.Rotation),
	}
	if payload.Scale != nil {
		out.Scale = math.Vec2{X: float32(payload.Scale[0]), Y: float32(payload.Scale[1])}
	}
	return out
}

// specGlossTexture returns the specular-glossiness texture index from the
// legacy extension, or -1 when the material does not carry one.
func specGlossTexture(ext gltf.Extensions) int {
	raw, ok := ext[specGlossExt]
	if !ok {
		return -1
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return -1
	}
	var payload struct {
		SpecularGlossinessTexture *struct {
			Index int `json:"index"`
		} `json:"specularGlossinessTexture"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SpecularGlossinessTexture == nil {
		return -1
	}
	return payload.SpecularGlossinessTexture.Index
}
