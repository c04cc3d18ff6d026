package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Capture is a reusable render target for environment precomputation.
// Unlike Framebuffer it owns no color attachment: each pass attaches a
// cubemap face or 2D texture at the mip level it is rendering, and the
// depth renderbuffer is resized to match.
type Capture struct {
	fbo      uint32
	depthRBO uint32
	size     int32
}

// NewCapture creates a capture target with a depth renderbuffer of the
// given initial size.
func NewCapture(size int32) (*Capture, error) {
	if size < 1 {
		size = 1
	}
	c := &Capture{size: size}

	gl.GenFramebuffers(1, &c.fbo)
	gl.GenRenderbuffers(1, &c.depthRBO)

	gl.BindFramebuffer(gl.FRAMEBUFFER, c.fbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, c.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, size, size)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, c.depthRBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if c.fbo == 0 {
		return nil, fmt.Errorf("creating capture framebuffer")
	}
	return c, nil
}

// Bind makes the capture FBO current and sets the viewport to its size.
func (c *Capture) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.fbo)
	gl.Viewport(0, 0, c.size, c.size)
}

// Resize changes the depth storage and viewport, as prefilter mips and
// the different cubemap resolutions need differing sizes.
func (c *Capture) Resize(size int32) {
	if size < 1 {
		size = 1
	}
	c.size = size
	gl.BindRenderbuffer(gl.RENDERBUFFER, c.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, size, size)
	gl.Viewport(0, 0, size, size)
}

// AttachCubeFace points the color attachment at one cubemap face and
// mip level. face is 0..5 in +X -X +Y -Y +Z -Z order.
func (c *Capture) AttachCubeFace(cubemap uint32, face, mip int32) {
	gl.FramebufferTexture2D(
		gl.FRAMEBUFFER,
		gl.COLOR_ATTACHMENT0,
		uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face),
		cubemap,
		mip,
	)
}

// AttachTexture2D points the color attachment at a 2D texture.
func (c *Capture) AttachTexture2D(tex uint32, mip int32) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, mip)
}

// Complete reports whether the current attachment set is renderable.
func (c *Capture) Complete() bool {
	return gl.CheckFramebufferStatus(gl.FRAMEBUFFER) == gl.FRAMEBUFFER_COMPLETE
}

// Unbind restores the default framebuffer.
func (c *Capture) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Destroy releases the GL objects.
func (c *Capture) Destroy() {
	if c.fbo != 0 {
		gl.DeleteFramebuffers(1, &c.fbo)
		c.fbo = 0
	}
	if c.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &c.depthRBO)
		c.depthRBO = 0
	}
}
