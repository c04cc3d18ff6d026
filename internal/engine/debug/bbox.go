// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/sceneview/pkg/math"

// GenerateBBoxWireframeVertices creates line vertices for a wireframe bounding box.
// Returns 24 vertices (12 edges × 2 endpoints), format: [x, y, z] per vertex.
func GenerateBBoxWireframeVertices(minX, minY, minZ, maxX, maxY, maxZ float32) []float32 {
	return []float32{
		// Bottom face (4 edges)
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face (4 edges)
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges (4 edges)
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}

// PaddedBBoxVertices creates wireframe vertices for a world-space box
// expanded by padding on all sides. Padding scales with the box so the
// outline stays visible on any model size.
func PaddedBBoxVertices(min, max math.Vec3, padding float32) []float32 {
	pad := max.Sub(min).Length() * padding
	return GenerateBBoxWireframeVertices(
		min.X-pad, min.Y-pad, min.Z-pad,
		max.X+pad, max.Y+pad, max.Z+pad,
	)
}

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the default relative padding for selection boxes.
const DefaultBBoxPadding = 0.01
