// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

const (
	DefaultPipelineHost = "localhost"
	DefaultPipelinePort = 8000
)

// getPipelineBaseURL returns the address of the pipeline service.
func getPipelineBaseURL() string {
	// 1. Priority: Environment Variable (Used by tests & container overrides)
	if url := os.Getenv("POKECTL_ADDR"); url != "" {
		return strings.TrimRight(url, "/")
	}
	// 2. Default: Standard Host/Port
	return fmt.Sprintf("http://%s:%d", DefaultPipelineHost, DefaultPipelinePort)
}

// apiEnvelope mirrors the JSON wrapper every pipeline endpoint returns.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Total   *int            `json:"total,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// callAPI sends one request to the pipeline and decodes the envelope.
// Any transport failure or unsuccessful envelope is fatal: pokectl is a
// one-shot tool, there is nothing to recover to.
func callAPI(method, path string, body interface{}) apiEnvelope {
	base := getPipelineBaseURL()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("Failed to encode the request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, base+path, reader)
	if err != nil {
		log.Fatalf("Failed to create the request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Failed to reach the pipeline at %s: %v", base, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Fatalf("Failed to parse the pipeline response (%s): %s", resp.Status, string(raw))
	}
	if !env.Success {
		log.Fatalf("Pipeline returned an error (status %d): %s", resp.StatusCode, env.Message)
	}
	return env
}

func apiGet(path string) apiEnvelope {
	return callAPI(http.MethodGet, path, nil)
}

func apiPost(path string, body interface{}) apiEnvelope {
	return callAPI(http.MethodPost, path, body)
}

// apiGetRaw fetches a non-enveloped endpoint (health, file downloads)
// and returns the body bytes with the status code.
func apiGetRaw(path string) ([]byte, int) {
	base := getPipelineBaseURL()
	resp, err := http.Get(base + path)
	if err != nil {
		log.Fatalf("Failed to reach the pipeline at %s: %v", base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read the pipeline response: %v", err)
	}
	return raw, resp.StatusCode
}

// decodeData unmarshals the envelope payload into out.
func decodeData(env apiEnvelope, out interface{}) {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Fatalf("Failed to parse the pipeline payload: %v", err)
	}
}
