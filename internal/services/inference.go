package services

import (
	"context"
	"errors"
)

// ErrEmptyGeneration means the provider answered successfully but produced no text.
var ErrEmptyGeneration = errors.New("inference returned no generated text")

// Inferencer is the text-generation collaborator: one prompt in, one reply out.
type Inferencer interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
}
