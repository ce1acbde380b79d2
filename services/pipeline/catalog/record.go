// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog defines the Pokémon record model, the badger-backed
// record store, and the import client for the upstream catalog API.
//
// A Record is the unit every other pipeline component operates on. The
// store keys records by lowercase name (the natural key), so badger's
// ordered iteration doubles as name-sorted listing. The import client
// normalizes upstream payloads into Records before they ever reach the
// store, so downstream consumers can rely on canonical stat names and
// lowercase identifiers.
package catalog

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Vocabulary
// =============================================================================

// StatNames lists the six stat dimensions every record is expected to
// carry, in canonical order.
var StatNames = []string{
	"hp",
	"attack",
	"defense",
	"special_attack",
	"special_defense",
	"speed",
}

// statAliases maps upstream stat spellings to canonical dimension names.
var statAliases = map[string]string{
	"special-attack":  "special_attack",
	"special-defense": "special_defense",
}

// KnownTypes is the canonical category vocabulary. Tags outside this set
// are treated as inconsistent data by the rule engine and the aggregator.
var KnownTypes = map[string]struct{}{
	"normal": {}, "fire": {}, "water": {}, "electric": {}, "grass": {},
	"ice": {}, "fighting": {}, "poison": {}, "ground": {}, "flying": {},
	"psychic": {}, "bug": {}, "rock": {}, "ghost": {}, "dragon": {},
	"dark": {}, "steel": {}, "fairy": {},
}

// IsKnownType reports whether t is in the canonical type vocabulary.
func IsKnownType(t string) bool {
	_, ok := KnownTypes[t]
	return ok
}

// Generation id cutoffs, inclusive upper bounds per labeled bucket.
var generationBounds = []struct {
	max   int
	label string
}{
	{151, "generation_1"},
	{251, "generation_2"},
	{386, "generation_3"},
	{493, "generation_4"},
	{649, "generation_5"},
}

// Generation returns the generation bucket label for a record id.
// Ids outside the known ranges (including non-positive ids) map to "other".
func Generation(id int) string {
	if id <= 0 {
		return "other"
	}
	for _, b := range generationBounds {
		if id <= b.max {
			return b.label
		}
	}
	return "other"
}

// =============================================================================
// Record
// =============================================================================

// Record is one catalog entry as stored and streamed.
//
// # Description
//
// Identity is the numeric ID (immutable once assigned) plus the name,
// which is the natural key for store lookups and is kept lowercase.
// Stats is a map rather than a fixed struct so "dimension absent" stays
// distinguishable from "dimension zero"; rules and quality scoring need
// that distinction.
//
// Records may legally carry anomalous data (negative stats, unknown
// types, missing sprites). Validate only enforces identity shape; content
// policy belongs to the rule engine.
type Record struct {
	ID             int            `json:"id" validate:"required,gt=0"`
	Name           string         `json:"name" validate:"required"`
	Height         int            `json:"height"`
	Weight         int            `json:"weight"`
	BaseExperience int            `json:"base_experience"`
	Types          []string       `json:"types"`
	Abilities      []string       `json:"abilities"`
	Stats          map[string]int `json:"stats"`
	SpriteFront    string         `json:"sprite_front"`
	SpriteBack     string         `json:"sprite_back"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// recordValidate is the validator instance for catalog records.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New()
}

// Validate checks the identity shape of the record: positive id and
// non-empty name. Anomalous content (negative stats, unknown types) is
// deliberately NOT rejected here.
func (r *Record) Validate() error {
	return recordValidate.Struct(r)
}

// Normalize rewrites the record into canonical form: trimmed lowercase
// name, lowercase type tags, and canonical stat dimension names.
// Safe to call repeatedly.
func (r *Record) Normalize() {
	r.Name = strings.ToLower(strings.TrimSpace(r.Name))
	for i, t := range r.Types {
		r.Types[i] = strings.ToLower(strings.TrimSpace(t))
	}
	for alias, canonical := range statAliases {
		if v, ok := r.Stats[alias]; ok {
			r.Stats[canonical] = v
			delete(r.Stats, alias)
		}
	}
}

// Clone returns a deep copy so callers can hand records to concurrent
// consumers without sharing slices or the stats map.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Types != nil {
		out.Types = append([]string(nil), r.Types...)
	}
	if r.Abilities != nil {
		out.Abilities = append([]string(nil), r.Abilities...)
	}
	if r.Stats != nil {
		out.Stats = make(map[string]int, len(r.Stats))
		for k, v := range r.Stats {
			out.Stats[k] = v
		}
	}
	return &out
}

// HasAllStats reports whether all six stat dimensions are present.
func (r *Record) HasAllStats() bool {
	for _, name := range StatNames {
		if _, ok := r.Stats[name]; !ok {
			return false
		}
	}
	return true
}

// TotalStats sums the present stat dimensions. Used for rankings; absent
// dimensions contribute nothing.
func (r *Record) TotalStats() int {
	total := 0
	for _, name := range StatNames {
		total += r.Stats[name]
	}
	return total
}
