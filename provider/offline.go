package provider

import "context"

// Offline answers from the request's deterministic renderer and never talks
// to a network backend.
type Offline struct{}

func (Offline) Generate(ctx context.Context, req Request) (string, error) {
	if req.Offline == nil {
		return "", ErrUnavailable
	}
	return req.Offline()
}
