// Package idx reads and writes the IDX files used by the MNIST digit
// dataset.
//
// An IDX file starts with a big-endian header: a 4-byte magic number, a
// 4-byte item count and, for images, 4-byte row and column counts. The
// payload follows as unsigned bytes in row-major order. Images are returned
// as [N, rows, cols] tensors holding raw 0-255 intensities; labels as [N]
// tensors holding class ids. Files compressed with gzip are detected and
// decompressed transparently.
package idx

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

// Magic numbers of unsigned byte IDX files.
const (
	ImageMagic = 2051
	LabelMagic = 2049
)

// ReadImages decodes an image file into an [N, rows, cols] tensor.
func ReadImages(r io.Reader) (*tensor.Tensor, error) {
	const op = "idx.ReadImages"
	if err := readMagic(r, op, ImageMagic, "images"); err != nil {
		return nil, err
	}
	var dims [3]uint32
	if err := binary.Read(r, binary.BigEndian, &dims); err != nil {
		return nil, errors.Wrap(err, "failed to read image header")
	}
	payload, err := readPayload(r, op, dims[:]...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image payload")
	}
	return fromBytes(payload, int(dims[0]), int(dims[1]), int(dims[2]))
}

// ReadLabels decodes a label file into an [N] tensor.
func ReadLabels(r io.Reader) (*tensor.Tensor, error) {
	const op = "idx.ReadLabels"
	if err := readMagic(r, op, LabelMagic, "labels"); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, errors.Wrap(err, "failed to read label header")
	}
	payload, err := readPayload(r, op, count)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read label payload")
	}
	return fromBytes(payload, int(count))
}

// readMagic consumes the magic number and checks it against want, so a file
// of the wrong kind is reported as such however short it is.
func readMagic(r io.Reader, op string, want uint32, kind string) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return errors.Wrapf(err, "failed to read %s magic number", kind)
	}
	if magic != want {
		return errors.NewValueError(op, fmt.Sprintf("unexpected magic number %d for %s", magic, kind))
	}
	return nil
}

// readPayload reads the prod(dims) payload bytes. The buffer grows with the
// bytes actually read, so a header declaring more data than the stream holds
// fails as truncated without a large allocation.
func readPayload(r io.Reader, op string, dims ...uint32) ([]byte, error) {
	total, err := payloadSize(op, dims)
	if err != nil {
		return nil, err
	}
	payload, err := io.ReadAll(io.LimitReader(r, int64(total)))
	if err != nil {
		return nil, err
	}
	if len(payload) < total {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "truncated at element %d of %d", len(payload), total)
	}
	return payload, nil
}

// payloadSize returns the element count declared by dims, rejecting counts
// whose float64 tensor could not be addressed.
func payloadSize(op string, dims []uint32) (int, error) {
	const maxElements = math.MaxInt / tensor.ElementSize
	for _, d := range dims {
		if d == 0 {
			return 0, nil
		}
	}
	total := 1
	for _, d := range dims {
		if total > maxElements/int(d) {
			return 0, errors.NewAllocationError(op, math.MaxInt, fmt.Errorf("declared dimensions %v overflow", dims))
		}
		total *= int(d)
	}
	return total, nil
}

// fromBytes allocates a tensor of the given shape holding payload.
func fromBytes(payload []byte, shape ...int) (*tensor.Tensor, error) {
	t, err := tensor.New(shape...)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return t, nil
	}
	view, err := t.Reshape(1, len(payload))
	if err != nil {
		t.Release()
		return nil, err
	}
	defer view.Release()
	dense, err := view.AsDense()
	if err != nil {
		t.Release()
		return nil, err
	}
	dst := dense.RawRowView(0)
	for i, v := range payload {
		dst[i] = float64(v)
	}
	return t, nil
}

// WriteImages encodes an [N, rows, cols] tensor as an image file. Values are
// rounded and clamped to 0-255.
func WriteImages(w io.Writer, images *tensor.Tensor) error {
	const op = "idx.WriteImages"
	if images == nil {
		return errors.NewValueError(op, "images cannot be nil")
	}
	if images.NDim() != 3 {
		return errors.NewDimensionError(op, 3, images.NDim(), -1)
	}
	shape := images.Shape()
	return write(w, op, images, ImageMagic, uint32(shape[0]), uint32(shape[1]), uint32(shape[2]))
}

// WriteLabels encodes an [N] tensor of class ids as a label file.
func WriteLabels(w io.Writer, labels *tensor.Tensor) error {
	const op = "idx.WriteLabels"
	if labels == nil {
		return errors.NewValueError(op, "labels cannot be nil")
	}
	if labels.NDim() != 1 {
		return errors.NewDimensionError(op, 1, labels.NDim(), -1)
	}
	return write(w, op, labels, LabelMagic, uint32(labels.Len()))
}

func write(w io.Writer, op string, t *tensor.Tensor, header ...uint32) error {
	values := t.Values()
	if values == nil && t.Released() {
		return errors.NewModelError(op, "use after release", errors.ErrReleased)
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, v := range values {
		if err := bw.WriteByte(toByte(v)); err != nil {
			return errors.Wrap(err, "failed to write payload")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush")
}

func toByte(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(math.Round(v))
	}
}

// Open opens path for reading, decompressing it when it is gzip encoded.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "failed to open gzip stream")
		}
		return &gzipFile{Reader: gz, file: f}, nil
	}
	return &plainFile{Reader: br, file: f}, nil
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (p *plainFile) Close() error { return p.file.Close() }

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gerr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gerr
}

// LoadImages reads an image file from disk.
func LoadImages(path string) (*tensor.Tensor, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	images, err := ReadImages(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return images, nil
}

// LoadLabels reads a label file from disk.
func LoadLabels(path string) (*tensor.Tensor, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	labels, err := ReadLabels(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return labels, nil
}

// Dataset pairs an image tensor with its label tensor.
type Dataset struct {
	Images *tensor.Tensor // [N, rows, cols]
	Labels *tensor.Tensor // [N]
}

// Load reads an image file and its label file and checks that the counts
// agree.
func Load(imagesPath, labelsPath string) (*Dataset, error) {
	images, err := LoadImages(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		images.Release()
		return nil, err
	}
	if n := images.Shape()[0]; n != labels.Len() {
		images.Release()
		labels.Release()
		return nil, errors.NewShapeMismatchError("idx.Load", []int{n}, []int{labels.Len()})
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// Count returns the number of samples.
func (d *Dataset) Count() int { return d.Labels.Len() }

// Release frees both tensors.
func (d *Dataset) Release() {
	d.Images.Release()
	d.Labels.Release()
}
