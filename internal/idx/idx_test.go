package idx

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
)

func imageFile(n, rows, cols int, payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, []uint32{ImageMagic, uint32(n), uint32(rows), uint32(cols)})
	buf.Write(payload)
	return buf.Bytes()
}

func labelFile(payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, []uint32{LabelMagic, uint32(len(payload))})
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadImages(t *testing.T) {
	data := imageFile(2, 2, 3, []byte{
		0, 1, 2,
		3, 4, 5,
		255, 128, 0,
		10, 20, 30,
	})

	images, err := ReadImages(bytes.NewReader(data))
	require.NoError(t, err)
	defer images.Release()

	assert.Equal(t, []int{2, 2, 3}, images.Shape())
	v, err := images.At(1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 128.0, v)
	v, err = images.At(0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestReadImages_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 8}},
		{"label magic", labelFile([]byte{1, 2})},
		{"truncated payload", imageFile(2, 2, 2, []byte{1, 2, 3, 4, 5})},
		{"missing payload", imageFile(1, 28, 28, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, err := ReadImages(bytes.NewReader(tt.data))
			assert.Error(t, err)
			assert.Nil(t, images)
		})
	}

	_, err := ReadImages(bytes.NewReader(imageFile(1, 1, 2, []byte{1})))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadImages(bytes.NewReader(labelFile(nil)))
	var valErr *errors.ValueError
	assert.ErrorAs(t, err, &valErr)
}

func TestReadImages_OversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{ImageMagic, 0x7FFFFFFF, 64, 64}))
	buf.Write([]byte{1, 2, 3})

	images, err := ReadImages(&buf)
	assert.Nil(t, images)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{ImageMagic, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}))
	_, err = ReadImages(&buf)
	var allocErr *errors.AllocationError
	assert.ErrorAs(t, err, &allocErr)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{LabelMagic, 0xFFFFFFFF}))
	buf.Write([]byte{7})
	labels, err := ReadLabels(&buf)
	assert.Nil(t, labels)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadWrongKind(t *testing.T) {
	tests := []struct {
		name string
		read func(io.Reader) (*tensor.Tensor, error)
		data []byte
	}{
		{"labels as images", ReadImages, labelFile(nil)},
		{"magic only as images", ReadImages, []byte{0, 0, 8, 1}},
		{"images as labels", ReadLabels, imageFile(0, 0, 0, nil)},
		{"magic only as labels", ReadLabels, []byte{0, 0, 8, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.read(bytes.NewReader(tt.data))
			var valErr *errors.ValueError
			assert.ErrorAs(t, err, &valErr)
		})
	}
}

func TestReadLabels(t *testing.T) {
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i % 10)
	}

	labels, err := ReadLabels(bytes.NewReader(labelFile(payload)))
	require.NoError(t, err)
	defer labels.Release()

	assert.Equal(t, []int{5000}, labels.Shape())
	v, err := labels.At(4999)
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)

	_, err = ReadLabels(bytes.NewReader(imageFile(1, 1, 1, []byte{0})))
	var valErr *errors.ValueError
	assert.ErrorAs(t, err, &valErr)
}

func TestReadEmptyFiles(t *testing.T) {
	images, err := ReadImages(bytes.NewReader(imageFile(0, 28, 28, nil)))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 28, 28}, images.Shape())

	labels, err := ReadLabels(bytes.NewReader(labelFile(nil)))
	require.NoError(t, err)
	assert.Equal(t, 0, labels.Len())
}

func TestWriteReadRoundTrip(t *testing.T) {
	images, err := tensor.FromSlice([]float64{0, 12.4, 12.6, 300, -5, 255}, 1, 2, 3)
	require.NoError(t, err)
	defer images.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteImages(&buf, images))
	assert.Equal(t, 16+6, buf.Len())

	back, err := ReadImages(&buf)
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, []float64{0, 12, 13, 255, 0, 255}, back.Values())

	labels, err := tensor.FromSlice([]float64{3, 1, 4}, 3)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, WriteLabels(&buf, labels))
	backLabels, err := ReadLabels(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 4}, backLabels.Values())
}

func TestWrite_Errors(t *testing.T) {
	flat, err := tensor.New(2, 2)
	require.NoError(t, err)

	var dimErr *errors.DimensionError
	assert.ErrorAs(t, WriteImages(io.Discard, flat), &dimErr)
	assert.ErrorAs(t, WriteLabels(io.Discard, flat), &dimErr)

	var valErr *errors.ValueError
	assert.ErrorAs(t, WriteImages(io.Discard, nil), &valErr)

	labels, err := tensor.New(3)
	require.NoError(t, err)
	labels.Release()
	assert.ErrorIs(t, WriteLabels(io.Discard, labels), errors.ErrReleased)
}

func writeFile(t *testing.T, path string, data []byte, compress bool) {
	t.Helper()
	if compress {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write(data)
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		data = buf.Bytes()
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "train-images-idx3-ubyte.gz")
	labelsPath := filepath.Join(dir, "train-labels-idx1-ubyte")
	writeFile(t, imagesPath, imageFile(3, 1, 2, []byte{1, 2, 3, 4, 5, 6}), true)
	writeFile(t, labelsPath, labelFile([]byte{7, 8, 9}), false)

	ds, err := Load(imagesPath, labelsPath)
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 3, ds.Count())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, ds.Images.Values())
	assert.Equal(t, []float64{7, 8, 9}, ds.Labels.Values())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "images")
	labelsPath := filepath.Join(dir, "labels")
	writeFile(t, imagesPath, imageFile(2, 1, 1, []byte{1, 2}), false)
	writeFile(t, labelsPath, labelFile([]byte{7, 8, 9}), true)

	_, err := Load(imagesPath, labelsPath)
	var mismatch *errors.ShapeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = Load(filepath.Join(dir, "missing"), labelsPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")

	// A label file is not an image file.
	_, err = LoadImages(labelsPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), labelsPath)
}
