package ibl

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/framebuffer"
	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/math"
)

// State tracks how far the precompute pipeline has advanced. Build moves
// through the states in order; a failure leaves the pipeline at the last
// completed state.
type State int

const (
	StateEnvironmentReady State = iota
	StateCubemapProjected
	StateMipsGenerated
	StateIrradianceConvolved
	StatePrefilterComplete
	StateBRDFComplete
)

func (s State) String() string {
	switch s {
	case StateEnvironmentReady:
		return "environment-ready"
	case StateCubemapProjected:
		return "cubemap-projected"
	case StateMipsGenerated:
		return "mips-generated"
	case StateIrradianceConvolved:
		return "irradiance-convolved"
	case StatePrefilterComplete:
		return "prefilter-complete"
	case StateBRDFComplete:
		return "brdf-complete"
	default:
		return "unknown"
	}
}

// passPlan is the fixed order of states Build advances through after
// the environment source is ready. The BRDF state is last and entered
// exactly once per Build.
func passPlan() []State {
	return []State{
		StateCubemapProjected,
		StateMipsGenerated,
		StateIrradianceConvolved,
		StatePrefilterComplete,
		StateBRDFComplete,
	}
}

// Config sizes the precomputed maps. Panorama selects the HDR file
// source; when it is empty or Procedural is set, the sky is generated
// on the CPU instead.
type Config struct {
	Panorama   string
	Procedural bool
	Sky        SkyParams

	SkyFaceSize    int32
	CubemapSize    int32
	IrradianceSize int32
	PrefilterSize  int32
	PrefilterMips  int32
	BRDFSize       int32
}

// DefaultConfig returns the standard map resolutions.
func DefaultConfig() Config {
	return Config{
		Sky:            DefaultSkyParams(),
		SkyFaceSize:    128,
		CubemapSize:    512,
		IrradianceSize: 32,
		PrefilterSize:  128,
		PrefilterMips:  5,
		BRDFSize:       512,
	}
}

// Maps holds the precomputed lighting resources. The zero value is the
// flat fallback: renderers bind nothing and shade without IBL.
type Maps struct {
	Environment   uint32
	Irradiance    uint32
	Prefiltered   uint32
	BRDFLUT       uint32
	PrefilterMips int32
}

// Bind attaches the maps to their reserved texture units: irradiance on
// 10, prefiltered environment on 11, BRDF LUT on 12. The environment
// cubemap stands in for convolutions that failed to build.
func (m Maps) Bind() {
	irr := m.Irradiance
	if irr == 0 {
		irr = m.Environment
	}
	pre := m.Prefiltered
	if pre == 0 {
		pre = m.Environment
	}

	gl.ActiveTexture(gl.TEXTURE10)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, irr)
	gl.ActiveTexture(gl.TEXTURE11)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, pre)
	gl.ActiveTexture(gl.TEXTURE12)
	gl.BindTexture(gl.TEXTURE_2D, m.BRDFLUT)
	gl.ActiveTexture(gl.TEXTURE0)
}

// Valid reports whether the full pipeline completed.
func (m Maps) Valid() bool {
	return m.Environment != 0 && m.Irradiance != 0 && m.Prefiltered != 0 && m.BRDFLUT != 0
}

// captureViews returns the six 90-degree views looking down each cubemap
// face from the origin.
func captureViews() [6]math.Mat4 {
	origin := math.Vec3{}
	return [6]math.Mat4{
		math.LookAt(origin, math.Vec3{X: 1}, math.Vec3{Y: -1}),
		math.LookAt(origin, math.Vec3{X: -1}, math.Vec3{Y: -1}),
		math.LookAt(origin, math.Vec3{Y: 1}, math.Vec3{Z: 1}),
		math.LookAt(origin, math.Vec3{Y: -1}, math.Vec3{Z: -1}),
		math.LookAt(origin, math.Vec3{Z: 1}, math.Vec3{Y: -1}),
		math.LookAt(origin, math.Vec3{Z: -1}, math.Vec3{Y: -1}),
	}
}

// Pipeline owns the capture resources and runs the precompute passes.
type Pipeline struct {
	cfg   Config
	state State

	capture *framebuffer.Capture
	cube    *captureCube
	quad    *captureQuad

	equirectProg   *shader.Program
	irradianceProg *shader.Program
	prefilterProg  *shader.Program
	brdfProg       *shader.Program

	log *zap.Logger
}

// NewPipeline prepares the capture framebuffer, geometry and programs.
func NewPipeline(cfg Config) (*Pipeline, error) {
	capture, err := framebuffer.NewCapture(cfg.CubemapSize)
	if err != nil {
		return nil, fmt.Errorf("capture target: %w", err)
	}

	p := &Pipeline{
		cfg:     cfg,
		capture: capture,
		cube:    newCaptureCube(),
		quad:    newCaptureQuad(),
		log:     logger.Named("ibl"),
	}

	p.equirectProg, err = shader.NewProgram(cubeVertexShader, equirectFragmentShader)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("equirect program: %w", err)
	}
	p.irradianceProg, err = shader.NewProgram(cubeVertexShader, irradianceFragmentShader)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("irradiance program: %w", err)
	}
	p.prefilterProg, err = shader.NewProgram(cubeVertexShader, prefilterFragmentShader)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("prefilter program: %w", err)
	}
	p.brdfProg, err = shader.NewProgram(quadVertexShader, brdfFragmentShader)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("brdf program: %w", err)
	}

	return p, nil
}

// State returns the last completed pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// Build runs the whole precompute synchronously and returns the maps.
// The passes run in passPlan order; on failure Build returns the zero
// Maps so the renderer falls back to flat shading, with the pipeline
// left at the last completed state.
func (p *Pipeline) Build() (Maps, error) {
	p.state = StateEnvironmentReady
	var maps Maps

	for _, next := range passPlan() {
		if err := p.runPass(next, &maps); err != nil {
			p.destroyMaps(&maps)
			return Maps{}, err
		}
		p.state = next
	}

	p.log.Info("lighting precompute complete",
		zap.String("state", p.state.String()),
		zap.Bool("procedural", p.usesProceduralSky()))
	return maps, nil
}

// runPass executes the work that completes the given state, filling in
// the corresponding map resource.
func (p *Pipeline) runPass(s State, maps *Maps) error {
	switch s {
	case StateCubemapProjected:
		env, envSize, err := p.buildEnvironment()
		if err != nil {
			return err
		}
		maps.Environment = env
		p.log.Debug("environment cubemap ready", zap.Int32("size", envSize))
		return nil

	case StateMipsGenerated:
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, maps.Environment)
		gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
		return nil

	case StateIrradianceConvolved:
		irr, err := p.convolveIrradiance(maps.Environment)
		if err != nil {
			return err
		}
		maps.Irradiance = irr
		return nil

	case StatePrefilterComplete:
		pre, err := p.prefilterEnvironment(maps.Environment)
		if err != nil {
			return err
		}
		maps.Prefiltered = pre
		maps.PrefilterMips = p.cfg.PrefilterMips
		return nil

	case StateBRDFComplete:
		lut, err := p.integrateBRDF()
		if err != nil {
			return err
		}
		maps.BRDFLUT = lut
		return nil
	}
	return fmt.Errorf("no pass completes state %s", s)
}

func (p *Pipeline) usesProceduralSky() bool {
	return p.cfg.Procedural || p.cfg.Panorama == ""
}

// buildEnvironment produces the source cubemap, from the procedural sky
// or by projecting the configured panorama.
func (p *Pipeline) buildEnvironment() (uint32, int32, error) {
	if p.usesProceduralSky() {
		env := p.generateSkyCubemap()
		return env, p.cfg.SkyFaceSize, nil
	}

	pano, err := LoadPanorama(p.cfg.Panorama)
	if err != nil {
		return 0, 0, err
	}
	env, err := p.projectPanorama(pano)
	if err != nil {
		return 0, 0, err
	}
	return env, p.cfg.CubemapSize, nil
}

// newCubemap allocates a float cubemap with clamped trilinear sampling.
func newCubemap(size int32, mipmapped bool) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex)
	for face := 0; face < 6; face++ {
		gl.TexImage2D(
			uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face),
			0, gl.RGB16F, size, size, 0, gl.RGB, gl.FLOAT, nil,
		)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if mipmapped {
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	return tex
}

// generateSkyCubemap uploads the CPU-evaluated procedural sky faces.
func (p *Pipeline) generateSkyCubemap() uint32 {
	size := p.cfg.SkyFaceSize
	env := newCubemap(size, true)

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, env)
	for face := 0; face < 6; face++ {
		pixels := GenerateSkyFace(face, int(size), p.cfg.Sky)
		gl.TexImage2D(
			uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face),
			0, gl.RGB32F, size, size, 0, gl.RGB, gl.FLOAT, gl.Ptr(pixels),
		)
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return env
}

// projectPanorama uploads the equirect image and renders it onto each
// face of a new cubemap.
func (p *Pipeline) projectPanorama(pano *Panorama) (uint32, error) {
	var equirect uint32
	gl.GenTextures(1, &equirect)
	gl.BindTexture(gl.TEXTURE_2D, equirect)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F,
		int32(pano.Width), int32(pano.Height), 0, gl.RGB, gl.FLOAT, gl.Ptr(pano.Pixels))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	defer gl.DeleteTextures(1, &equirect)

	env := newCubemap(p.cfg.CubemapSize, true)

	proj := math.Perspective(captureFOV, 1, 0.1, 10)
	views := captureViews()

	p.equirectProg.Use()
	p.equirectProg.SetMat4("uProjection", proj)
	p.equirectProg.SetInt("uEquirectMap", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, equirect)

	p.capture.Bind()
	p.capture.Resize(p.cfg.CubemapSize)
	for face := int32(0); face < 6; face++ {
		p.capture.AttachCubeFace(env, face, 0)
		if !p.capture.Complete() {
			p.capture.Unbind()
			gl.DeleteTextures(1, &env)
			return 0, fmt.Errorf("projection target incomplete for face %d", face)
		}
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		p.equirectProg.SetMat4("uView", views[face])
		p.cube.draw()
	}
	p.capture.Unbind()
	return env, nil
}

// convolveIrradiance integrates the hemisphere of the environment map
// into a small diffuse cubemap.
func (p *Pipeline) convolveIrradiance(env uint32) (uint32, error) {
	irr := newCubemap(p.cfg.IrradianceSize, false)

	proj := math.Perspective(captureFOV, 1, 0.1, 10)
	views := captureViews()

	p.irradianceProg.Use()
	p.irradianceProg.SetMat4("uProjection", proj)
	p.irradianceProg.SetInt("uEnvironmentMap", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, env)

	p.capture.Bind()
	p.capture.Resize(p.cfg.IrradianceSize)
	for face := int32(0); face < 6; face++ {
		p.capture.AttachCubeFace(irr, face, 0)
		if !p.capture.Complete() {
			p.capture.Unbind()
			gl.DeleteTextures(1, &irr)
			return 0, fmt.Errorf("irradiance target incomplete for face %d", face)
		}
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		p.irradianceProg.SetMat4("uView", views[face])
		p.cube.draw()
	}
	p.capture.Unbind()
	return irr, nil
}

// prefilterEnvironment builds the roughness mip chain: each mip is the
// environment convolved against the GGX lobe at roughness mip/(mips-1).
func (p *Pipeline) prefilterEnvironment(env uint32) (uint32, error) {
	pre := newCubemap(p.cfg.PrefilterSize, true)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, pre)
	gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)

	proj := math.Perspective(captureFOV, 1, 0.1, 10)
	views := captureViews()

	p.prefilterProg.Use()
	p.prefilterProg.SetMat4("uProjection", proj)
	p.prefilterProg.SetInt("uEnvironmentMap", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, env)

	p.capture.Bind()
	for mip := int32(0); mip < p.cfg.PrefilterMips; mip++ {
		mipSize := p.cfg.PrefilterSize >> uint(mip)
		if mipSize < 1 {
			mipSize = 1
		}
		p.capture.Resize(mipSize)

		roughness := float32(mip) / float32(p.cfg.PrefilterMips-1)
		p.prefilterProg.SetFloat("uRoughness", roughness)

		for face := int32(0); face < 6; face++ {
			p.capture.AttachCubeFace(pre, face, mip)
			if !p.capture.Complete() {
				p.capture.Unbind()
				gl.DeleteTextures(1, &pre)
				return 0, fmt.Errorf("prefilter target incomplete at mip %d face %d", mip, face)
			}
			gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
			p.prefilterProg.SetMat4("uView", views[face])
			p.cube.draw()
		}
	}
	p.capture.Unbind()
	return pre, nil
}

// integrateBRDF renders the split-sum lookup table, once per Build.
func (p *Pipeline) integrateBRDF() (uint32, error) {
	var lut uint32
	gl.GenTextures(1, &lut)
	gl.BindTexture(gl.TEXTURE_2D, lut)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG16F, p.cfg.BRDFSize, p.cfg.BRDFSize, 0, gl.RG, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	p.capture.Bind()
	p.capture.Resize(p.cfg.BRDFSize)
	p.capture.AttachTexture2D(lut, 0)
	if !p.capture.Complete() {
		p.capture.Unbind()
		gl.DeleteTextures(1, &lut)
		return 0, fmt.Errorf("brdf target incomplete")
	}

	p.brdfProg.Use()
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	p.quad.draw()
	p.capture.Unbind()
	return lut, nil
}

func (p *Pipeline) destroyMaps(m *Maps) {
	for _, tex := range []*uint32{&m.Environment, &m.Irradiance, &m.Prefiltered, &m.BRDFLUT} {
		if *tex != 0 {
			gl.DeleteTextures(1, tex)
			*tex = 0
		}
	}
}

// Destroy releases the pipeline's capture resources. Built maps are
// owned by the caller and survive.
func (p *Pipeline) Destroy() {
	if p.capture != nil {
		p.capture.Destroy()
		p.capture = nil
	}
	if p.cube != nil {
		p.cube.destroy()
		p.cube = nil
	}
	if p.quad != nil {
		p.quad.destroy()
		p.quad = nil
	}
	for _, prog := range []**shader.Program{&p.equirectProg, &p.irradianceProg, &p.prefilterProg, &p.brdfProg} {
		if *prog != nil {
			(*prog).Destroy()
			*prog = nil
		}
	}
}

const captureFOV = float32(gomath.Pi / 2)
