package loaders

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-global-illumination/pkg/core"
)

// Color is one 8-bit display-space RGB pixel
type Color struct {
	R, G, B uint8
}

// ImageData is an 8-bit RGB raster. Pixel (0,0) is the bottom-left corner.
type ImageData struct {
	Width  int
	Height int
	Pixels []Color
}

// NewImageData allocates a black image
func NewImageData(width, height int) *ImageData {
	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// Get returns the pixel at (x, y)
func (img *ImageData) Get(x, y int) Color {
	return img.Pixels[y*img.Width+x]
}

// Set stores the pixel at (x, y)
func (img *ImageData) Set(x, y int, c Color) {
	img.Pixels[y*img.Width+x] = c
}

// SetLinear converts a linear color to display space, clamps it and stores it
func (img *ImageData) SetLinear(x, y int, linear core.Vec3) {
	srgb := linear.ToSRGB().Clamp(0, 1)
	img.Set(x, y, Color{
		R: uint8(srgb.X*255 + 0.5),
		G: uint8(srgb.Y*255 + 0.5),
		B: uint8(srgb.Z*255 + 0.5),
	})
}

// LinearPixels converts every pixel from display space to linear colors,
// keeping the bottom-left origin
func (img *ImageData) LinearPixels() []core.Vec3 {
	pixels := make([]core.Vec3, len(img.Pixels))
	for i, c := range img.Pixels {
		pixels[i] = core.NewVec3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255).ToLinear()
	}
	return pixels
}

// ToRGBA converts to a top-down image.RGBA for encoding
func (img *ImageData) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.Get(x, y)
			out.Set(x, img.Height-1-y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}

// LoadImage loads a PPM, PNG or JPEG image
func LoadImage(filename string) (*ImageData, error) {
	if isPPMName(filename) {
		return LoadPPM(filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects PNG/JPEG from file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	data := NewImageData(bounds.Dx(), bounds.Dy())
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			data.Set(x, data.Height-1-y, Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
		}
	}
	return data, nil
}

// SaveImage writes the image as PPM or PNG depending on the extension
func SaveImage(img *ImageData, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ppm":
		return SavePPM(img, filename)
	case ".png":
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create image file: %w", err)
		}
		defer file.Close()
		if err := png.Encode(file, img.ToRGBA()); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported image extension %q", filepath.Ext(filename))
	}
}

// SavePPM writes a binary P6 file, top row first
func SavePPM(img *ImageData, filename string) error {
	if !isPPMName(filename) {
		return fmt.Errorf("not a PPM filename: %s", filename)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("unable to open %s for writing: %w", filename, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := EncodePPM(w, img); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// EncodePPM writes the P6 header and pixel data to w
func EncodePPM(w io.Writer, img *ImageData) error {
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("failed to write ppm header: %w", err)
	}
	row := make([]byte, 3*img.Width)
	for y := img.Height - 1; y >= 0; y-- {
		for x := 0; x < img.Width; x++ {
			c := img.Get(x, y)
			row[3*x], row[3*x+1], row[3*x+2] = c.R, c.G, c.B
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write ppm data: %w", err)
		}
	}
	return nil
}

// LoadPPM reads a binary P6 file
func LoadPPM(filename string) (*ImageData, error) {
	if !isPPMName(filename) {
		return nil, fmt.Errorf("not a PPM filename: %s", filename)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s for reading: %w", filename, err)
	}
	defer file.Close()

	img, err := DecodePPM(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return img, nil
}

// maxPPMPixels caps the raster a PPM header may ask DecodePPM to allocate
const maxPPMPixels = 1 << 26

// DecodePPM parses a P6 stream. Comment lines starting with '#' are skipped
// before the size line.
func DecodePPM(r *bufio.Reader) (*ImageData, error) {
	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if !strings.Contains(magic, "P6") {
		return nil, fmt.Errorf("wrong magic %q", strings.TrimSpace(magic))
	}

	line, err := r.ReadString('\n')
	for err == nil && strings.HasPrefix(line, "#") {
		line, err = r.ReadString('\n')
	}
	if err != nil {
		return nil, fmt.Errorf("reading size: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return nil, fmt.Errorf("malformed size line %q", strings.TrimSpace(line))
	}
	width, errW := strconv.Atoi(fields[0])
	height, errH := strconv.Atoi(fields[1])
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size %q", strings.TrimSpace(line))
	}
	if width > maxPPMPixels/height {
		return nil, fmt.Errorf("image size %dx%d exceeds %d pixels", width, height, maxPPMPixels)
	}

	maxval, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading max value: %w", err)
	}
	if strings.TrimSpace(maxval) != "255" {
		return nil, fmt.Errorf("unsupported max value %q", strings.TrimSpace(maxval))
	}

	img := NewImageData(width, height)
	row := make([]byte, 3*width)
	for y := height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, fmt.Errorf("reading pixel data: %w", err)
		}
		for x := 0; x < width; x++ {
			img.Set(x, y, Color{R: row[3*x], G: row[3*x+1], B: row[3*x+2]})
		}
	}
	return img, nil
}

func isPPMName(filename string) bool {
	return len(filename) > 4 && strings.HasSuffix(filename, ".ppm")
}
