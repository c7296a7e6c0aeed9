// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package models defines the wire contracts and canonical entity rows shared
// across the ingestion pipeline: sourcing requests, process requests, domain
// events, and the deduplicated entities they resolve to.
package models
