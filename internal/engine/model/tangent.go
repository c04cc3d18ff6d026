package model

import "github.com/Faultbox/sceneview/pkg/math"

// ComputeTangents fills per-vertex tangent and bitangent vectors from
// positions and UVs. Needed for tangent-space normal mapping when the
// source file ships no TANGENT accessor. Vertices without UVs keep zero
// basis vectors; triangles with degenerate UV area are skipped.
func ComputeTangents(vertices []Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Tangent = [3]float32{}
		vertices[i].Bitangent = [3]float32{}
	}

	// accum adds one triangle's tangent frame to its three vertices.
	accum := func(i0, i1, i2 uint32) {
		v0 := &vertices[i0]
		v1 := &vertices[i1]
		v2 := &vertices[i2]

		e1 := vec3(v1.Position).Sub(vec3(v0.Position))
		e2 := vec3(v2.Position).Sub(vec3(v0.Position))

		du1 := v1.TexCoord[0] - v0.TexCoord[0]
		dv1 := v1.TexCoord[1] - v0.TexCoord[1]
		du2 := v2.TexCoord[0] - v0.TexCoord[0]
		dv2 := v2.TexCoord[1] - v0.TexCoord[1]

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			return // degenerate UV triangle
		}
		r := 1.0 / denom

		t := e1.Scale(dv2 * r).Sub(e2.Scale(dv1 * r))
		b := e2.Scale(du1 * r).Sub(e1.Scale(du2 * r))

		for _, v := range []*Vertex{v0, v1, v2} {
			v.Tangent = arr3(vec3(v.Tangent).Add(t))
			v.Bitangent = arr3(vec3(v.Bitangent).Add(b))
		}
	}

	if len(indices) > 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			accum(indices[i], indices[i+1], indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(vertices); i += 3 {
			accum(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	// Gram-Schmidt orthogonalize against the normal and normalize.
	for i := range vertices {
		n := vec3(vertices[i].Normal)
		t := vec3(vertices[i].Tangent)
		b := vec3(vertices[i].Bitangent)

		if t.Length() == 0 && b.Length() == 0 {
			// No UV contribution reached this vertex; leave it zeroed.
			continue
		}

		t = t.Sub(n.Scale(n.Dot(t)))
		if t.Dot(t) < 1e-8 {
			// Pick any direction perpendicular to the normal.
			if abs(n.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(n.Scale(n.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(n.Scale(n.Y))
			}
		}
		vertices[i].Tangent = arr3(t.Normalize())

		if b.Dot(b) < 1e-8 {
			b = n.Cross(vec3(vertices[i].Tangent))
		}
		vertices[i].Bitangent = arr3(b.Normalize())
	}
}

func vec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func arr3(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
