package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/mdsvm/core/model"
	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/internal/idx"
)

// writeFixture stores four 2x2 images whose lit column is the label.
func writeFixture(t *testing.T, dir string) (images, labels string) {
	t.Helper()
	img, err := tensor.FromSlice([]float64{
		255, 0, 255, 0,
		0, 255, 0, 255,
		255, 0, 255, 0,
		0, 255, 0, 255,
	}, 4, 2, 2)
	require.NoError(t, err)
	defer img.Release()
	lbl, err := tensor.FromSlice([]float64{0, 1, 0, 1}, 4)
	require.NoError(t, err)
	defer lbl.Release()

	images = filepath.Join(dir, "images-idx3-ubyte")
	labels = filepath.Join(dir, "labels-idx1-ubyte")

	f, err := os.Create(images)
	require.NoError(t, err)
	require.NoError(t, idx.WriteImages(f, img))
	require.NoError(t, f.Close())

	f, err = os.Create(labels)
	require.NoError(t, err)
	require.NoError(t, idx.WriteLabels(f, lbl))
	require.NoError(t, f.Close())
	return images, labels
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	configPath, logLevel = "", ""
	return newApp().Run(context.Background(), append([]string{"mdsvm"}, args...))
}

func TestTrainEvaluate(t *testing.T) {
	dir := t.TempDir()
	images, labels := writeFixture(t, dir)
	weights := filepath.Join(dir, "model.json")
	plot := filepath.Join(dir, "loss.png")

	err := run(t, "train",
		"--log-level", "error",
		"--images", images,
		"--labels", labels,
		"--classes", "2",
		"--epochs", "20",
		"--learning-rate", "0.1",
		"--weight-scale", "0",
		"--scaler", "minmax",
		"--out", weights,
		"--loss-plot", plot,
	)
	require.NoError(t, err)

	w, err := model.LoadWeights(weights)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Classes)
	assert.Equal(t, 4, w.Features)
	assert.Contains(t, w.Metadata, metaRunID)
	assert.Contains(t, w.Metadata, metaScaler)
	assert.InDelta(t, 1.0, w.Metadata[metaAccuracy], 1e-12)

	_, err = os.Stat(plot)
	assert.NoError(t, err)

	err = run(t, "evaluate",
		"--log-level", "error",
		"--images", images,
		"--labels", labels,
		"--weights", weights,
	)
	require.NoError(t, err)
}

func TestTrainLimit(t *testing.T) {
	dir := t.TempDir()
	images, labels := writeFixture(t, dir)
	weights := filepath.Join(dir, "model.json")

	err := run(t, "train",
		"--log-level", "error",
		"--images", images,
		"--labels", labels,
		"--limit", "2",
		"--classes", "2",
		"--epochs", "1",
		"--out", weights,
	)
	require.NoError(t, err)

	w, err := model.LoadWeights(weights)
	require.NoError(t, err)
	assert.EqualValues(t, 2, w.Metadata[metaSamples])
}

func TestTrainRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	images, labels := writeFixture(t, dir)

	err := run(t, "train",
		"--log-level", "error",
		"--images", images,
		"--labels", labels,
		"--classes", "2",
		"--scaler", "bogus",
		"--out", filepath.Join(dir, "model.json"),
	)
	assert.Error(t, err)
}

func TestExportSample(t *testing.T) {
	dir := t.TempDir()
	images, _ := writeFixture(t, dir)
	out := filepath.Join(dir, "sample.png")

	err := run(t, "export-sample",
		"--log-level", "error",
		"--images", images,
		"--index", "1",
		"--scale", "4",
		"--out", out,
	)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestLoadModelMissingFile(t *testing.T) {
	_, _, err := loadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
