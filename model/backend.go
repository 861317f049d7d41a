package model

import (
	"context"
	"io"

	"loom/backend"
)

// Backend abstracts the reasoning-service client so the business logic can
// be tested against a scripted stream instead of a live server.
//
// The interface is defined in the model package (not backend) to avoid an
// import cycle: backend implements it without knowing about model.
type Backend interface {
	// SendMessage posts one chat request and returns the open event
	// stream. The caller owns the body; closing it stops the backend
	// from producing frames.
	SendMessage(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error)

	// ListModels returns the models the backend offers.
	ListModels(ctx context.Context) ([]backend.ModelInfo, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error

	// GetModel returns the current default model key.
	GetModel() string

	// SetModel changes the default model key for new requests.
	SetModel(model string)
}
