// Package scene renders placed models with physically based shading and
// image-based lighting, plus the environment skybox behind them.
package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/framebuffer"
	"github.com/Faultbox/sceneview/internal/engine/ibl"
	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/math"
)

// Config contains scene configuration options.
type Config struct {
	Width  int32
	Height int32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720}
}

// Scene owns the placed models, the shading programs and the offscreen
// render target. Rendering happens into the framebuffer; callers present
// its color texture or read it back for capture.
type Scene struct {
	config Config

	framebuffer *framebuffer.Framebuffer

	pbr    *shader.Program
	skybox *shader.Program
	lines  *shader.Program

	skyVAO, skyVBO             uint32
	highlightVAO, highlightVBO uint32

	placements []*Placement
	highlight  *Placement
	env        ibl.Maps

	// Directional light matching the environment sun.
	LightDir   math.Vec3
	LightColor math.Vec3

	log *zap.Logger
}

// New creates a scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	s := &Scene{
		config:     cfg,
		LightDir:   math.Vec3{X: 0.5, Y: 0.8, Z: 0.3},
		LightColor: math.Vec3{X: 3, Y: 3, Z: 3},
		log:        logger.Named("scene"),
	}

	var err error
	s.framebuffer, err = framebuffer.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	s.pbr, err = shader.NewProgram(pbrVertexShader, pbrFragmentShader)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating pbr program: %w", err)
	}

	s.skybox, err = shader.NewProgram(skyboxVertexShader, skyboxFragmentShader)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating skybox program: %w", err)
	}

	s.lines, err = shader.NewProgram(lineVertexShader, lineFragmentShader)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating line program: %w", err)
	}

	s.createSkyCube()
	s.createHighlight()
	return s, nil
}

var skyCubeVertices = []float32{
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

func (s *Scene) createSkyCube() {
	gl.GenVertexArrays(1, &s.skyVAO)
	gl.GenBuffers(1, &s.skyVBO)
	gl.BindVertexArray(s.skyVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.skyVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyCubeVertices)*4, gl.Ptr(skyCubeVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
}

// SetEnvironment installs the precomputed lighting maps. The zero value
// disables IBL and the skybox.
func (s *Scene) SetEnvironment(maps ibl.Maps) {
	s.env = maps
}

// Environment returns the installed lighting maps.
func (s *Scene) Environment() ibl.Maps {
	return s.env
}

// Add registers a placement for rendering.
func (s *Scene) Add(p *Placement) {
	s.placements = append(s.placements, p)
	s.log.Debug("placement added",
		zap.Int("meshes", p.Model.MeshCount()),
		zap.Bool("movable", p.Movable))
}

// Placements returns the registered placements in draw order.
func (s *Scene) Placements() []*Placement {
	return s.placements
}

// MovablePlacements returns placements that accept interactive movement.
func (s *Scene) MovablePlacements() []*Placement {
	var out []*Placement
	for _, p := range s.placements {
		if p.Movable {
			out = append(out, p)
		}
	}
	return out
}

// CombinedBounds returns the world-space box around every placement.
// An empty scene yields the zero box.
func (s *Scene) CombinedBounds() Bounds {
	if len(s.placements) == 0 {
		return Bounds{}
	}
	b := s.placements[0].WorldBounds()
	for _, p := range s.placements[1:] {
		b = b.Merge(p.WorldBounds())
	}
	return b
}

// Render draws all placements and the skybox into the framebuffer and
// returns its color texture.
func (s *Scene) Render(view, proj math.Mat4, viewPos math.Vec3) uint32 {
	restore := s.framebuffer.BindWithViewport()
	defer restore()

	s.framebuffer.Clear(0.1, 0.1, 0.12, 1.0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	s.pbr.Use()
	s.pbr.SetMat4("uView", view)
	s.pbr.SetMat4("uProjection", proj)
	s.pbr.SetVec3("uViewPos", viewPos)
	s.pbr.SetVec3("uLightDir", s.LightDir.Normalize())
	s.pbr.SetVec3("uLightColor", s.LightColor)

	hasIBL := s.env.Environment != 0
	s.pbr.SetBool("uHasIBL", hasIBL)
	if hasIBL {
		s.env.Bind()
		s.pbr.SetInt("uIrradianceMap", 10)
		s.pbr.SetInt("uPrefilteredMap", 11)
		s.pbr.SetInt("uBrdfLUT", 12)
		mips := s.env.PrefilterMips
		if mips < 1 {
			mips = 1
		}
		s.pbr.SetFloat("uPrefilterMaxMip", float32(mips-1))
	}

	for _, p := range s.placements {
		p.Model.Draw(s.pbr, p.WorldMatrix(), viewPos)
	}

	if hasIBL {
		s.drawSkybox(view, proj)
	}

	s.drawHighlight(view, proj)

	return s.framebuffer.ColorTexture()
}

// drawSkybox renders the environment cubemap behind everything already
// drawn, relying on the xyww depth trick and LEQUAL.
func (s *Scene) drawSkybox(view, proj math.Mat4) {
	gl.DepthFunc(gl.LEQUAL)

	s.skybox.Use()
	s.skybox.SetMat4("uView", view)
	s.skybox.SetMat4("uProjection", proj)
	s.skybox.SetInt("uEnvironmentMap", 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, s.env.Environment)

	gl.BindVertexArray(s.skyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthFunc(gl.LESS)
}

// Resize updates the framebuffer to the new window size.
func (s *Scene) Resize(width, height int32) {
	if width == s.config.Width && height == s.config.Height {
		return
	}
	s.config.Width = width
	s.config.Height = height
	s.framebuffer.Resize(width, height)
}

// Size returns the render target dimensions.
func (s *Scene) Size() (int32, int32) {
	return s.config.Width, s.config.Height
}

// ColorTexture returns the rendered color texture.
func (s *Scene) ColorTexture() uint32 {
	return s.framebuffer.ColorTexture()
}

// FBO returns the underlying framebuffer object for presentation blits.
func (s *Scene) FBO() uint32 {
	return s.framebuffer.FBO()
}

// CaptureImage reads back the rendered frame as top-to-bottom RGBA.
func (s *Scene) CaptureImage() ([]byte, int32, int32) {
	width, height := s.framebuffer.Size()
	pixels := s.framebuffer.ReadPixels()

	rowSize := int(width) * 4
	flipped := make([]byte, len(pixels))
	for y := 0; y < int(height); y++ {
		srcRow := (int(height) - 1 - y) * rowSize
		dstRow := y * rowSize
		copy(flipped[dstRow:dstRow+rowSize], pixels[srcRow:srcRow+rowSize])
	}
	return flipped, width, height
}

// Destroy releases all GL resources. Models are owned by the caller.
func (s *Scene) Destroy() {
	if s.pbr != nil {
		s.pbr.Destroy()
		s.pbr = nil
	}
	if s.skybox != nil {
		s.skybox.Destroy()
		s.skybox = nil
	}
	if s.lines != nil {
		s.lines.Destroy()
		s.lines = nil
	}
	if s.skyVAO != 0 {
		gl.DeleteVertexArrays(1, &s.skyVAO)
		gl.DeleteBuffers(1, &s.skyVBO)
		s.skyVAO, s.skyVBO = 0, 0
	}
	if s.highlightVAO != 0 {
		gl.DeleteVertexArrays(1, &s.highlightVAO)
		gl.DeleteBuffers(1, &s.highlightVBO)
		s.highlightVAO, s.highlightVBO = 0, 0
	}
	if s.framebuffer != nil {
		s.framebuffer.Destroy()
		s.framebuffer = nil
	}
}
