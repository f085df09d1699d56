// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding computes fixed-length semantic vectors for text.
package embedding

import "context"

// Provider generates embeddings from text. Model inference is a black box:
// text in, fixed-length vector out.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the vector length every Embed result has.
	Dimensions() int
}
