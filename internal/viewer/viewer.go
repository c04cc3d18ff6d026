// Package viewer implements the interactive scene viewer: window and
// input plumbing, model loading, lighting precompute and the frame loop.
package viewer

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/config"
	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/debug"
	"github.com/Faultbox/sceneview/internal/engine/ibl"
	"github.com/Faultbox/sceneview/internal/engine/input"
	"github.com/Faultbox/sceneview/internal/engine/model"
	"github.com/Faultbox/sceneview/internal/engine/picking"
	"github.com/Faultbox/sceneview/internal/engine/renderer"
	"github.com/Faultbox/sceneview/internal/engine/scene"
	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/internal/engine/window"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/math"
)

// Viewer is the application instance.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	textures *texture.Cache

	scene  *scene.Scene
	camera *camera.FlyCamera
	models []*model.Model

	// Index into the scene's movable placements, -1 when none.
	selected  int
	mouseLook bool

	// Left-drag state: the selection slides along the horizontal plane
	// under its bounding box.
	dragging             bool
	dragY                float32
	dragLastX, dragLastZ float32

	screenshots *debug.ScreenshotCapture
}

// New builds the viewer: window and GL context first, then textures,
// models, scene and lighting.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int("models", len(cfg.Scene.Models)),
	)

	v := &Viewer{
		cfg:         cfg,
		selected:    -1,
		screenshots: debug.NewScreenshotCapture("screenshots", "sceneview"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Scene Viewer",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	v.renderer, err = renderer.New(renderer.Config{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	v.textures = texture.NewCache()

	drawW, drawH := v.window.DrawableSize()
	v.scene, err = scene.New(scene.Config{Width: int32(drawW), Height: int32(drawH)})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	if err := v.loadModels(); err != nil {
		v.Close()
		return nil, err
	}

	v.buildLighting()
	v.setupCamera()

	v.renderer.SetWireframe(cfg.Graphics.Wireframe)

	logger.Info("viewer initialized")
	return v, nil
}

// loadModels imports, places and uploads every configured model.
func (v *Viewer) loadModels() error {
	for _, mc := range v.cfg.Scene.Models {
		m, err := model.Import(mc.Path, v.textures)
		if err != nil {
			return fmt.Errorf("importing %s: %w", mc.Path, err)
		}
		m.Upload()
		v.models = append(v.models, m)

		p := scene.PlaceGrounded(m, mc.Position, mc.Scale, mc.Movable)
		v.scene.Add(p)

		logger.Info("model loaded",
			zap.String("path", mc.Path),
			zap.Int("meshes", m.MeshCount()),
			zap.Int("vertices", m.VertexCount()),
			zap.Int("textures", m.TextureCount()),
			zap.Bool("movable", mc.Movable),
		)
	}

	hits, misses := v.textures.Stats()
	logger.Info("texture cache",
		zap.Int("hits", hits),
		zap.Int("misses", misses),
	)

	if movable := v.scene.MovablePlacements(); len(movable) > 0 {
		v.selectPlacement(0)
	}
	return nil
}

// selectPlacement updates the selection index and highlight outline.
func (v *Viewer) selectPlacement(index int) {
	movable := v.scene.MovablePlacements()
	if index < 0 || index >= len(movable) {
		v.selected = -1
		v.scene.SetHighlight(nil)
		return
	}
	v.selected = index
	v.scene.SetHighlight(movable[index])
}

// buildLighting runs the IBL precompute. Failure falls back to flat
// shading rather than aborting startup.
func (v *Viewer) buildLighting() {
	env := v.cfg.Environment
	iblCfg := ibl.Config{
		Panorama:   env.Panorama,
		Procedural: env.Procedural,
		Sky: ibl.SkyParams{
			SunDirection: vec3(env.Sky.SunDirection),
			SunIntensity: env.Sky.SunIntensity,
			SunPower:     env.Sky.SunPower,
			HorizonColor: vec3(env.Sky.HorizonColor),
			ZenithColor:  vec3(env.Sky.ZenithColor),
		},
		SkyFaceSize:    int32(env.SkyFaceSize),
		CubemapSize:    int32(env.CubemapSize),
		IrradianceSize: int32(env.IrradianceSize),
		PrefilterSize:  int32(env.PrefilterSize),
		PrefilterMips:  int32(env.PrefilterMips),
		BRDFSize:       int32(env.BRDFSize),
	}

	pipeline, err := ibl.NewPipeline(iblCfg)
	if err != nil {
		logger.Warn("lighting precompute unavailable", zap.Error(err))
		return
	}
	defer pipeline.Destroy()

	maps, err := pipeline.Build()
	if err != nil {
		logger.Warn("lighting precompute failed, using flat shading",
			zap.String("state", pipeline.State().String()),
			zap.Error(err))
		return
	}

	v.scene.SetEnvironment(maps)
	v.scene.LightDir = vec3(env.Sky.SunDirection)
	logger.Info("lighting ready", zap.String("state", pipeline.State().String()))
}

// setupCamera frames the scene or falls back to a fixed start pose.
func (v *Viewer) setupCamera() {
	v.camera = camera.NewFlyCamera()

	bounds := v.scene.CombinedBounds()
	if v.cfg.Scene.AutoFrame && bounds != (scene.Bounds{}) {
		v.camera.FrameBounds(bounds.Min, bounds.Max)
		logger.Debug("camera framed scene",
			zap.Float32("size", bounds.Size().Length()))
		return
	}

	v.camera.Position = math.Vec3{Y: 1.5, Z: 5}
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	if v.cfg.Debug.PauseBeforeRender {
		logger.Info("paused before first frame, press enter to continue")
		fmt.Scanln()
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.update(dt)

		v.render()
		v.window.SwapBuffers()

		if v.cfg.Debug.CapturePath != "" {
			if err := v.captureFrame(v.cfg.Debug.CapturePath); err != nil {
				return err
			}
			v.running = false
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(event.Width, event.Height)
			drawW, drawH := v.window.DrawableSize()
			v.scene.Resize(int32(drawW), int32(drawH))

		case input.EventKeyDown:
			v.handleKey(event.Key)

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				v.mouseLook = true
				v.window.SetRelativeMouseMode(true)
			} else if event.Button == sdl.BUTTON_LEFT && !v.mouseLook {
				if v.pickModel(float32(event.MouseX), float32(event.MouseY)) {
					v.beginDrag(float32(event.MouseX), float32(event.MouseY))
				}
			}

		case input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT {
				v.mouseLook = false
				v.window.SetRelativeMouseMode(false)
			} else if event.Button == sdl.BUTTON_LEFT {
				v.dragging = false
			}

		case input.EventMouseMove:
			if v.mouseLook {
				v.camera.HandleLook(float32(event.RelX), float32(event.RelY))
			} else if v.dragging {
				v.dragTo(float32(event.MouseX), float32(event.MouseY))
			}

		case input.EventMouseWheel:
			// Scroll rescales fly speed.
			v.camera.MoveSpeed *= 1 + event.WheelY*0.1
			if v.camera.MoveSpeed < 0.01 {
				v.camera.MoveSpeed = 0.01
			}
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false

	case sdl.SCANCODE_F1:
		v.renderer.SetWireframe(!v.renderer.Wireframe())

	case sdl.SCANCODE_F2:
		pixels, w, h := v.scene.CaptureImage()
		// CaptureImage already returns top-to-bottom rows; re-flip for
		// the GL-ordered capture helper.
		if path, err := v.screenshots.CaptureFromPixels(flipRows(pixels, int(w), int(h)), int(w), int(h)); err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
		} else {
			logger.Info("screenshot saved", zap.String("path", path))
		}

	case sdl.SCANCODE_F:
		bounds := v.scene.CombinedBounds()
		if bounds != (scene.Bounds{}) {
			v.camera.FrameBounds(bounds.Min, bounds.Max)
		}

	case sdl.SCANCODE_TAB:
		movable := v.scene.MovablePlacements()
		if len(movable) > 0 {
			v.selectPlacement((v.selected + 1) % len(movable))
			logger.Debug("selected placement", zap.Int("index", v.selected))
		}
	}
}

// pickModel casts a ray through the clicked pixel and selects the
// nearest movable placement it hits. Reports whether anything was hit.
func (v *Viewer) pickModel(screenX, screenY float32) bool {
	movable := v.scene.MovablePlacements()
	if len(movable) == 0 {
		return false
	}

	ray := v.screenRay(screenX, screenY)

	best := -1
	bestDist := float32(gomath.MaxFloat32)
	for i, p := range movable {
		b := p.WorldBounds()
		if dist, hit := ray.IntersectAABB(picking.AABB{Min: b.Min, Max: b.Max}); hit && dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return false
	}
	v.selectPlacement(best)
	logger.Debug("picked placement", zap.Int("index", best), zap.Float32("distance", bestDist))
	return true
}

// beginDrag anchors a drag at the clicked point on the horizontal
// plane under the selected placement.
func (v *Viewer) beginDrag(screenX, screenY float32) {
	movable := v.scene.MovablePlacements()
	if v.selected < 0 || v.selected >= len(movable) {
		return
	}
	v.dragY = movable[v.selected].WorldBounds().Min.Y
	if x, z, ok := v.screenRay(screenX, screenY).IntersectPlaneY(v.dragY); ok {
		v.dragging = true
		v.dragLastX, v.dragLastZ = x, z
	}
}

// dragTo slides the selected placement so it follows the cursor across
// the drag plane.
func (v *Viewer) dragTo(screenX, screenY float32) {
	movable := v.scene.MovablePlacements()
	if v.selected < 0 || v.selected >= len(movable) {
		v.dragging = false
		return
	}
	x, z, ok := v.screenRay(screenX, screenY).IntersectPlaneY(v.dragY)
	if !ok {
		return
	}
	movable[v.selected].Move(math.Vec3{X: x - v.dragLastX, Z: z - v.dragLastZ})
	v.dragLastX, v.dragLastZ = x, z
}

// screenRay casts a world-space ray through a window pixel.
func (v *Viewer) screenRay(screenX, screenY float32) picking.Ray {
	winW, winH := v.window.GetSize()
	view, proj := v.viewProjection()
	return picking.ScreenToRay(screenX, screenY, float32(winW), float32(winH), proj.Mul(view).Inverse())
}

func (v *Viewer) update(dt float32) {
	forward, right, up := v.input.MovementAxes()
	v.camera.HandleMovement(forward, right, up, v.input.FastModifier(), dt)

	x, y, z := v.input.ModelAxes()
	if x != 0 || y != 0 || z != 0 {
		movable := v.scene.MovablePlacements()
		if v.selected >= 0 && v.selected < len(movable) {
			p := movable[v.selected]
			step := moveStep(p) * dt
			p.Move(math.Vec3{X: x * step, Y: y * step, Z: z * step})
		}
	}
}

// moveStep scales interactive movement to the placement's size.
func moveStep(p *scene.Placement) float32 {
	size := p.Bounds.Size().Length()
	if size < 1 {
		size = 1
	}
	return size * 0.5
}

// viewProjection returns the frame's view and projection matrices. The
// clip range follows the scene extent so huge and tiny scenes both get
// usable depth precision.
func (v *Viewer) viewProjection() (view, proj math.Mat4) {
	sw, sh := v.scene.Size()
	aspect := float32(sw) / float32(sh)

	far := v.scene.CombinedBounds().Size().Length() * 20
	if far < 100 {
		far = 100
	}
	proj = math.Perspective(0.785398, aspect, far*1e-4, far)
	view = v.camera.ViewMatrix()
	return view, proj
}

func (v *Viewer) render() {
	sw, sh := v.scene.Size()
	view, proj := v.viewProjection()

	v.scene.Render(view, proj, v.camera.Position)

	v.renderer.Begin()
	v.renderer.Present(v.scene.FBO(), sw, sh)
}

// captureFrame writes the last rendered frame to an explicit path.
func (v *Viewer) captureFrame(path string) error {
	pixels, w, h := v.scene.CaptureImage()
	if err := debug.SaveRGBA(pixels, int(w), int(h), path); err != nil {
		return fmt.Errorf("capturing frame: %w", err)
	}
	logger.Info("frame captured", zap.String("path", path))
	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	for _, m := range v.models {
		m.Destroy()
	}
	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.textures != nil {
		v.textures.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func vec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// flipRows reverses row order of tightly packed RGBA pixels.
func flipRows(pixels []byte, width, height int) []byte {
	rowSize := width * 4
	out := make([]byte, len(pixels))
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * rowSize
		copy(out[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return out
}
