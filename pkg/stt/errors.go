package stt

import "errors"

var (
	// ErrNotConnected is returned when using a recognizer before Connect.
	ErrNotConnected = errors.New("stt: recognizer not connected")

	// ErrClosed is returned when using a closed recognizer or listener.
	ErrClosed = errors.New("stt: closed")

	// ErrModelNotFound is returned when no catalog model matches the
	// requested language.
	ErrModelNotFound = errors.New("stt: no model found for language")

	// ErrDownloadFailed is returned when a model download exhausts all
	// retry attempts.
	ErrDownloadFailed = errors.New("stt: model download failed")
)
