package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoFrame means the camera has not produced a frame yet.
var ErrNoFrame = errors.New("camera: no frame available")

// Camera produces JPEG frames. The webcam and the mock both satisfy it.
type Camera interface {
	// Start begins capturing in the background.
	Start(ctx context.Context) error

	// Stop halts capture. Safe to call more than once.
	Stop() error

	// Frame returns the most recent JPEG frame and its capture time.
	Frame() (Frame, error)

	// Config returns the active configuration.
	Config() Config

	// Close releases the device.
	Close() error
}

// Frame is one captured JPEG image.
type Frame struct {
	JPEG     []byte
	Captured time.Time
	Seq      uint64
}

// Webcam captures from a local video device via OpenCV. The capture
// loop keeps only the latest frame; readers never see stale backlog.
type Webcam struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cap     *gocv.VideoCapture
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	frameMu sync.RWMutex
	frame   Frame
}

// NewWebcam opens the configured capture device.
func NewWebcam(cfg Config, logger *slog.Logger) (*Webcam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Webcam{
		cfg:    cfg,
		logger: logger.With("component", "camera"),
		cap:    cap,
	}, nil
}

// Start launches the capture loop. Starting a running camera is a
// no-op.
func (w *Webcam) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("camera: closed")
	}
	if w.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.running = true
	w.cancel = cancel
	w.done = done
	go w.captureLoop(runCtx, done)
	w.logger.Info("camera started", "device", w.cfg.Device,
		"resolution", fmt.Sprintf("%dx%d", w.cfg.Width, w.cfg.Height))
	return nil
}

// Stop halts the capture loop. The last frame stays readable.
func (w *Webcam) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.running = false
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		w.logger.Warn("capture loop did not stop in time")
	}
	return nil
}

// Frame returns the latest captured frame.
func (w *Webcam) Frame() (Frame, error) {
	w.frameMu.RLock()
	defer w.frameMu.RUnlock()
	if w.frame.JPEG == nil {
		return Frame{}, ErrNoFrame
	}
	return w.frame, nil
}

// Config returns the capture configuration.
func (w *Webcam) Config() Config { return w.cfg }

// Close stops capture and releases the device.
func (w *Webcam) Close() error {
	w.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.cap.Close()
}

func (w *Webcam) captureLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(w.cfg.Framerate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	img := gocv.NewMat()
	defer img.Close()

	var seq uint64
	var misses int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if ok := w.cap.Read(&img); !ok || img.Empty() {
			misses++
			if misses == 1 || misses%100 == 0 {
				w.logger.Warn("camera read failed", "misses", misses)
			}
			continue
		}
		misses = 0

		if w.cfg.FlipHorizontal {
			gocv.Flip(img, &img, 1)
		}

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
			[]int{gocv.IMWriteJpegQuality, w.cfg.Quality})
		if err != nil {
			w.logger.Warn("jpeg encode failed", "error", err)
			continue
		}
		jpeg := make([]byte, buf.Len())
		copy(jpeg, buf.GetBytes())
		buf.Close()

		seq++
		w.frameMu.Lock()
		w.frame = Frame{JPEG: jpeg, Captured: time.Now(), Seq: seq}
		w.frameMu.Unlock()
	}
}

var _ Camera = (*Webcam)(nil)
