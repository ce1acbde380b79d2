// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
)

// ListPokemon pages through the store in name order. Total reflects the
// whole store, not the page.
func ListPokemon(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 20)
		if !ok {
			return
		}
		offset := 0
		if raw := c.Query("offset"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(c, http.StatusBadRequest, CodeBadRequest, "offset must be a non-negative integer")
				return
			}
			offset = n
		}

		page, total, err := store.List(c.Request.Context(), offset, limit)
		if err != nil {
			slog.Error("pokemon list failed", "error", err)
			respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
			return
		}
		respondList(c, "pokemon", page, total)
	}
}

// GetPokemon looks one record up by name.
func GetPokemon(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			respondDomainError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "pokemon", rec)
	}
}

// CreatePokemon upserts a record supplied by the caller.
func CreatePokemon(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec catalog.Record
		if err := c.BindJSON(&rec); err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
			return
		}
		rec.Normalize()
		if err := rec.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, CodeValidationError, err.Error())
			return
		}

		if err := store.Upsert(c.Request.Context(), &rec); err != nil {
			slog.Error("pokemon upsert failed", "name", rec.Name, "error", err)
			respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
			return
		}
		respondOK(c, http.StatusCreated, "pokemon stored", rec)
	}
}

// DeletePokemon removes one record by name.
func DeletePokemon(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := store.Delete(c.Request.Context(), name); err != nil {
			respondDomainError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "pokemon deleted", gin.H{"name": name})
	}
}

// FetchPokemon pulls one record from the upstream catalog and stores it.
func FetchPokemon(client *catalog.Client, store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		rec, err := client.Fetch(c.Request.Context(), name)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		if err := store.Upsert(c.Request.Context(), rec); err != nil {
			slog.Error("fetched pokemon upsert failed", "name", rec.Name, "error", err)
			respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
			return
		}

		slog.Info("pokemon fetched from upstream", "name", rec.Name)
		respondOK(c, http.StatusCreated, "pokemon fetched", rec)
	}
}

// ImportRequest selects an inclusive id range to import.
type ImportRequest struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// ImportPokemon fetches an id range from the upstream catalog into the
// store. Individual failures are counted, not fatal.
func ImportPokemon(client *catalog.Client, store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ImportRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
			return
		}

		res, err := client.ImportRange(c.Request.Context(), store, req.First, req.Last)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}

		slog.Info("pokemon import finished", "imported", res.Imported, "failed", res.Failed)
		respondOK(c, http.StatusOK, "import finished", res)
	}
}
