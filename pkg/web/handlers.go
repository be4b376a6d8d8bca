package web

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/buddybotics/go-buddy/pkg/camera"
)

// handleStatus returns the current assistant state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGetConversation returns the recent conversation.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleCameraConfig returns the active capture configuration.
func (s *Server) handleCameraConfig(c *fiber.Ctx) error {
	if s.cam == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no camera configured",
		})
	}
	return c.JSON(s.cam.Config())
}

// handleCameraPresets lists the selectable capture presets.
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleCameraFrame returns the latest JPEG frame.
func (s *Server) handleCameraFrame(c *fiber.Ctx) error {
	if s.cam == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no camera configured",
		})
	}
	frame, err := s.cam.Frame()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(frame.JPEG)
}

// handleCameraStream serves an MJPEG stream of camera frames.
func (s *Server) handleCameraStream(c *fiber.Ctx) error {
	if s.cam == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no camera configured",
		})
	}

	interval := time.Second / time.Duration(s.cam.Config().Framerate)
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary=frame")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		var lastSeq uint64
		for {
			frame, err := s.cam.Frame()
			if err == nil && frame.Seq != lastSeq {
				lastSeq = frame.Seq
				fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame.JPEG))
				if _, err := w.Write(frame.JPEG); err != nil {
					return
				}
				fmt.Fprint(w, "\r\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
			time.Sleep(interval)
		}
	}))
	return nil
}
