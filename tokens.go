/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// TokenGenerator produces update tokens tagging "new elements" events.
type TokenGenerator interface {
	Generate() string
}

// UUIDTokens generates random UUID v4 tokens. It is the default.
type UUIDTokens struct{}

// Generate returns a new UUID string.
func (UUIDTokens) Generate() string {
	return uuid.NewString()
}

// SequenceTokens generates "<prefix>-1", "<prefix>-2", ... and is meant for
// tests that assert on tokens.
type SequenceTokens struct {
	Prefix string
	n      atomic.Uint64
}

// Generate returns the next token of the sequence.
func (s *SequenceTokens) Generate() string {
	return s.Prefix + "-" + strconv.FormatUint(s.n.Add(1), 10)
}
