package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/logger"
)

// ColorSpace selects the GL internal format for uploaded images.
// Color data (base color, emissive) is stored sRGB so sampling returns
// linear values; data maps (normals, roughness) stay linear.
type ColorSpace int

const (
	SRGB ColorSpace = iota
	Linear
)

// Cache loads images onto the GPU and deduplicates them by path.
// A handle of 0 means the load failed; callers treat the slot as unbound.
type Cache struct {
	handles map[string]uint32
	hits    int
	misses  int
	log     *zap.Logger
}

// NewCache returns an empty texture cache.
func NewCache() *Cache {
	return &Cache{
		handles: make(map[string]uint32),
		log:     logger.Named("texture"),
	}
}

// Load decodes the image at path and uploads it, or returns the cached
// handle when the (cleaned) path was loaded before. Returns 0 and an
// error when decoding fails; the failure is cached so a bad path is
// decoded only once.
func (c *Cache) Load(path string, space ColorSpace) (uint32, error) {
	key := filepath.Clean(path)
	if handle, ok := c.handles[key]; ok {
		c.hits++
		if handle == 0 {
			return 0, fmt.Errorf("texture %s previously failed to load", key)
		}
		return handle, nil
	}
	c.misses++

	data, err := os.ReadFile(key)
	if err != nil {
		c.handles[key] = 0
		return 0, fmt.Errorf("reading texture %s: %w", key, err)
	}

	handle, err := c.uploadBytes(key, data, space)
	c.handles[key] = handle
	if err != nil {
		return 0, err
	}
	c.log.Debug("texture loaded",
		zap.String("path", key),
		zap.Uint32("handle", handle))
	return handle, nil
}

// LoadBytes uploads an already-read image (a buffer-embedded glTF image)
// under a synthetic key, deduplicating like Load.
func (c *Cache) LoadBytes(key string, data []byte, space ColorSpace) (uint32, error) {
	if handle, ok := c.handles[key]; ok {
		c.hits++
		if handle == 0 {
			return 0, fmt.Errorf("texture %s previously failed to load", key)
		}
		return handle, nil
	}
	c.misses++

	handle, err := c.uploadBytes(key, data, space)
	c.handles[key] = handle
	if err != nil {
		return 0, err
	}
	return handle, nil
}

func (c *Cache) uploadBytes(key string, data []byte, space ColorSpace) (uint32, error) {
	img, err := decodeImage(key, data)
	if err != nil {
		return 0, fmt.Errorf("decoding texture %s: %w", key, err)
	}
	return upload(ImageToRGBA(img), space), nil
}

// decodeImage picks the decoder by extension: TGA has no magic bytes so
// it cannot go through image.Decode.
func decodeImage(path string, data []byte) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// upload creates a GL texture from an RGBA image with a full mip chain,
// repeat wrapping and trilinear filtering.
func upload(rgba *image.RGBA, space ColorSpace) uint32 {
	internalFormat := int32(gl.RGBA8)
	if space == SRGB {
		internalFormat = gl.SRGB8_ALPHA8
	}

	var handle uint32
	gl.GenTextures(1, &handle)
	gl.BindTexture(gl.TEXTURE_2D, handle)

	bounds := rgba.Bounds()
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internalFormat,
		int32(bounds.Dx()),
		int32(bounds.Dy()),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return handle
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Count returns the number of successfully loaded textures.
func (c *Cache) Count() int {
	n := 0
	for _, h := range c.handles {
		if h != 0 {
			n++
		}
	}
	return n
}

// Destroy deletes all GPU textures held by the cache.
func (c *Cache) Destroy() {
	for key, handle := range c.handles {
		if handle != 0 {
			gl.DeleteTextures(1, &handle)
		}
		delete(c.handles, key)
	}
}
