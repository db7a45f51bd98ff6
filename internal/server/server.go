// Package server exposes a fitted classifier over HTTP.
//
// Routes:
//
//	POST /v1/predict  {"images": [[...pixels...], ...]}  -> {"request_id", "predictions"}
//	GET  /v1/model    model description and weight hash
//	GET  /healthz     liveness
//
// Each image is a flat row-major pixel array of the model's feature size.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/ezoic/mdsvm/core/tensor"
	"github.com/ezoic/mdsvm/pkg/errors"
	"github.com/ezoic/mdsvm/pkg/log"
)

// Request bodies may spend this many bytes on each pixel value, plus a fixed
// allowance for the JSON envelope.
const (
	bytesPerValue     = 32
	envelopeAllowance = 1 << 10
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// Predictor is a fitted classifier.
type Predictor interface {
	Predict(images *tensor.Tensor) ([]int, error)
	NumClasses() int
	NumFeatures() int
	GetWeightHash() (string, error)
}

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Images [][]float64 `json:"images"`
}

// PredictResponse is the reply of POST /v1/predict.
type PredictResponse struct {
	RequestID   string `json:"request_id"`
	Predictions []int  `json:"predictions"`
}

// ModelInfo is the reply of GET /v1/model.
type ModelInfo struct {
	ModelType  string `json:"model_type"`
	Classes    int    `json:"n_classes"`
	Features   int    `json:"n_features"`
	WeightHash string `json:"weight_hash"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// Server serves predictions from one model.
type Server struct {
	model     Predictor
	modelType string
	maxBatch  int
	logger    log.Logger
}

// New creates a Server for model. Requests with more than maxBatch images
// are rejected.
func New(model Predictor, modelType string, maxBatch int) *Server {
	return &Server{
		model:     model,
		modelType: modelType,
		maxBatch:  maxBatch,
		logger: log.GetLoggerWithName("server").With(
			log.ModelNameKey, modelType,
			log.ComponentKey, "server",
		),
	}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/predict", s.handlePredict)
	e.GET("/v1/model", s.handleModel)
	e.GET("/healthz", s.handleHealth)
}

// Echo returns an echo instance with logging and panic recovery middleware
// and the routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(s.bodyLimit()))
	s.Register(e)
	return e
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string, readTimeout time.Duration) error {
	s.logger.Info("Starting server", "address", addr)
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = readTimeout
			return nil
		},
	}
	return sc.Start(ctx, s.Echo())
}

// bodyLimit is the largest predict body a full batch can need.
func (s *Server) bodyLimit() int64 {
	return int64(s.maxBatch)*int64(s.model.NumFeatures())*bytesPerValue + envelopeAllowance
}

func requestID(c *echo.Context) string {
	id := c.Request().Header.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Response().Header().Set(HeaderRequestID, id)
	return id
}

func writeError(c *echo.Context, status int, id, msg string) error {
	return c.JSON(status, ErrorResponse{RequestID: id, Error: msg})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, errors.Wrap(err, "invalid JSON body")
	}
	return out, nil
}

// batch packs request images into an [N, 1, features] tensor.
func (s *Server) batch(images [][]float64) (*tensor.Tensor, error) {
	const op = "server.batch"
	features := s.model.NumFeatures()
	if len(images) == 0 {
		return nil, errors.NewModelError(op, "no images", errors.ErrEmptyData)
	}
	if len(images) > s.maxBatch {
		return nil, errors.NewValueError(op, "too many images in one request")
	}
	flat := make([]float64, 0, len(images)*features)
	for i, img := range images {
		if len(img) != features {
			return nil, errors.NewShapeMismatchError(op, []int{i, len(img)}, []int{i, features})
		}
		flat = append(flat, img...)
	}
	return tensor.FromSlice(flat, len(images), 1, features)
}

func (s *Server) handlePredict(c *echo.Context) error {
	id := requestID(c)
	logger := s.logger.With(log.RequestIDKey, id)

	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return writeError(c, http.StatusRequestEntityTooLarge, id, "request body too large")
	}
	if err != nil {
		return writeError(c, http.StatusBadRequest, id, err.Error())
	}
	images, err := s.batch(req.Images)
	if err != nil {
		return writeError(c, http.StatusBadRequest, id, err.Error())
	}
	defer images.Release()

	start := time.Now()
	preds, err := s.model.Predict(images)
	if err != nil {
		logger.Error("Prediction failed", err)
		return writeError(c, http.StatusInternalServerError, id, err.Error())
	}
	logger.Debug("Prediction served",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(preds),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return c.JSON(http.StatusOK, PredictResponse{RequestID: id, Predictions: preds})
}

func (s *Server) handleModel(c *echo.Context) error {
	id := requestID(c)
	hash, err := s.model.GetWeightHash()
	if err != nil {
		return writeError(c, http.StatusInternalServerError, id, err.Error())
	}
	return c.JSON(http.StatusOK, ModelInfo{
		ModelType:  s.modelType,
		Classes:    s.model.NumClasses(),
		Features:   s.model.NumFeatures(),
		WeightHash: hash,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
