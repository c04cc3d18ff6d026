package scene

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/sceneview/internal/engine/debug"
	"github.com/Faultbox/sceneview/pkg/math"
)

var highlightColor = math.Vec3{X: 1, Y: 0.6, Z: 0.1}

const lineVertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;

uniform mat4 uView;
uniform mat4 uProjection;

void main() {
    gl_Position = uProjection * uView * vec4(aPos, 1.0);
}
`

const lineFragmentShader = `#version 410 core
out vec4 FragColor;

uniform vec3 uColor;

void main() {
    FragColor = vec4(uColor, 1.0);
}
`

func (s *Scene) createHighlight() {
	gl.GenVertexArrays(1, &s.highlightVAO)
	gl.GenBuffers(1, &s.highlightVBO)
	gl.BindVertexArray(s.highlightVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.highlightVBO)
	gl.BufferData(gl.ARRAY_BUFFER, debug.BBoxWireframeVertexCount*3*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
}

// SetHighlight marks a placement whose bounds are outlined each frame,
// nil to clear.
func (s *Scene) SetHighlight(p *Placement) {
	s.highlight = p
}

// drawHighlight outlines the highlighted placement's world bounds.
func (s *Scene) drawHighlight(view, proj math.Mat4) {
	if s.highlight == nil || s.lines == nil {
		return
	}

	b := s.highlight.WorldBounds()
	verts := debug.PaddedBBoxVertices(b.Min, b.Max, debug.DefaultBBoxPadding)

	gl.BindBuffer(gl.ARRAY_BUFFER, s.highlightVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts))

	s.lines.Use()
	s.lines.SetMat4("uView", view)
	s.lines.SetMat4("uProjection", proj)
	s.lines.SetVec3("uColor", highlightColor)

	gl.BindVertexArray(s.highlightVAO)
	gl.DrawArrays(gl.LINES, 0, debug.BBoxWireframeVertexCount)
	gl.BindVertexArray(0)
}
