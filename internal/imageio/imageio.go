// Package imageio exports samples of an image tensor as picture files.
package imageio

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// Format is an output picture encoding.
type Format string

// Supported formats.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	BMP  Format = "bmp"
)

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 100

// FormatFromPath picks the format matching the file extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	default:
		return "", errors.NewValueError("imageio.FormatFromPath", "unsupported image extension "+filepath.Ext(path))
	}
}

// Gray converts sample index of an [N, H, W] tensor into a grayscale image.
// Intensities are truncated to bytes after clamping to 0-255. When scale is
// greater than one the image is enlarged with nearest-neighbour sampling.
func Gray(images *tensor.Tensor, index, scale int) (*image.Gray, error) {
	const op = "imageio.Gray"
	if images == nil {
		return nil, errors.NewValueError(op, "images cannot be nil")
	}
	if images.NDim() != 3 {
		return nil, errors.NewDimensionError(op, 3, images.NDim(), -1)
	}
	if scale < 1 {
		return nil, errors.NewValueError(op, "scale must be at least 1")
	}
	sample, err := images.DropLeadingAxis(index)
	if err != nil {
		return nil, err
	}
	defer sample.Release()

	shape := sample.Shape()
	h, w := shape[0], shape[1]
	if h == 0 || w == 0 {
		return nil, errors.NewModelError(op, "empty image", errors.ErrEmptyData)
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range sample.Values() {
		img.Pix[i] = clamp(v)
	}
	if scale == 1 {
		return img, nil
	}
	big := image.NewGray(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(big, big.Bounds(), img, img.Bounds(), draw.Src, nil)
	return big, nil
}

func clamp(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case PNG:
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	default:
		return errors.NewValueError("imageio.Encode", "unsupported format "+string(format))
	}
	return errors.Wrapf(err, "failed to encode %s", format)
}

// WriteSample writes sample index of images to path, choosing the encoding
// from the file extension.
func WriteSample(path string, images *tensor.Tensor, index, scale int) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	img, err := Gray(images, index, scale)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return Encode(f, img, format)
}
