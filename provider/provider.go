// Package provider abstracts the text generation backend behind a single
// Generate call. A live OpenAI implementation and a deterministic offline
// implementation are provided.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Shape tells the backend what kind of answer the caller will parse.
type Shape int

const (
	ShapeText Shape = iota
	ShapeJSON
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call. Messages are sent in order.
type Request struct {
	Messages []Message
	Shape    Shape
	// Offline renders the deterministic answer used by the Offline provider.
	Offline func() (string, error)
}

// Prompt builds a request from a system prompt and a single user prompt.
func Prompt(system, user string, shape Shape) Request {
	return Request{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Shape: shape,
	}
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	ErrUnavailable = errors.New("generation provider is not configured")
	ErrTimeout     = errors.New("generation provider timed out")
	ErrProvider    = errors.New("generation provider failed")
)

// Error is returned when the backend answered with an error status or an
// unusable body.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrProvider }

// Recoverable reports whether err is a provider failure the caller should
// answer with its deterministic fallback.
func Recoverable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrProvider)
}
