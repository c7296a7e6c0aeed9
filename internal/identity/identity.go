// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package identity derives stable identities from provider URIs.
//
// Resolution is a pure function: the same logical resource always yields the
// same canonical ID across processes and time, with no coordination. This is
// what lets many workers canonicalize concurrently delivered documents
// without ever comparing notes.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// namespace is the fixed UUIDv5 namespace for canonical IDs. Changing it
// would re-key every entity, so it never changes.
var namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Identity is the stable identity derived from a source URI.
type Identity struct {
	// CanonicalID is the deterministic 128-bit entity key.
	CanonicalID uuid.UUID

	// ContentHash is the hex sha256 of the normalized URL. Stored with
	// external IDs so re-delivered documents resolve to the same row.
	ContentHash string

	// NormalizedURL is the URI with query parameters, fragments, and
	// case/slash noise stripped.
	NormalizedURL string
}

// Resolve maps a source URI to its Identity. Stateless and deterministic;
// safe to call redundantly from concurrent workers.
func Resolve(uri string) (Identity, error) {
	normalized, err := Normalize(uri)
	if err != nil {
		return Identity{}, err
	}

	sum := sha256.Sum256([]byte(normalized))

	return Identity{
		CanonicalID:   uuid.NewSHA1(namespace, []byte(normalized)),
		ContentHash:   hex.EncodeToString(sum[:]),
		NormalizedURL: normalized,
	}, nil
}

// Normalize strips the parts of a URI that vary between deliveries of the
// same logical resource: query parameters (API keys, cache busters),
// fragments, host/scheme casing, and trailing slashes.
func Normalize(uri string) (string, error) {
	if strings.TrimSpace(uri) == "" {
		return "", fmt.Errorf("normalize: empty uri")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", uri, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("normalize %q: missing scheme or host", uri)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), nil
}
