package ibl

import (
	"fmt"
	"image"
	"os"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
)

// Panorama is a decoded equirectangular HDR image as packed RGB floats,
// top row first.
type Panorama struct {
	Width  int
	Height int
	Pixels []float32
}

// LoadPanorama decodes a Radiance .hdr file into float RGB.
func LoadPanorama(path string) (*Panorama, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening panorama %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding panorama %s: %w", path, err)
	}

	hdrImg, ok := img.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("panorama %s is not an HDR image", path)
	}

	bounds := hdrImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, w*h*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := hdrImg.HDRAt(x, y).HDRRGBA()
			pixels[i] = float32(r)
			pixels[i+1] = float32(g)
			pixels[i+2] = float32(b)
			i += 3
		}
	}

	return &Panorama{Width: w, Height: h, Pixels: pixels}, nil
}
