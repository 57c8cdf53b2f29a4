/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gridboard/internal/config"
)

// Client is a minimal HTTP client for the share backend API.
// The desktop app uses it under a feature flag to list, pull and push boards.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientFromConfig builds a client from the user's backend settings.
// Timeout and TLS verification come from the config; the token is the one
// loaded from the OS keyring by config.Load.
func NewClientFromConfig(cfg config.AppConfig, token string) *Client {
	c := NewClient(cfg.Backend.BaseURL, token)
	if cfg.Backend.TimeoutMs > 0 {
		c.client.Timeout = time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond
	}
	if cfg.Backend.TLSInsecure {
		c.client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Board is a minimal projection for listing.
type Board struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListBoards returns the boards known to the server.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var list []Board
	if err := c.doJSON(ctx, http.MethodGet, "/api/boards", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DocumentEnvelope matches the server response for a board's current document.
type DocumentEnvelope struct {
	BoardID   int64           `json:"board_id"`
	StableID  string          `json:"stable_id"`
	Name      string          `json:"name"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	Document  json.RawMessage `json:"document"`
}

// PullDocument fetches the current document for the board with the given stable id.
func (c *Client) PullDocument(ctx context.Context, stableID string) (*DocumentEnvelope, error) {
	var env DocumentEnvelope
	path := fmt.Sprintf("/api/boards/%s/document", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PushReceipt is the server acknowledgement for a pushed document.
type PushReceipt struct {
	BoardID  int64  `json:"board_id"`
	StableID string `json:"stable_id"`
	Version  int64  `json:"version"`
}

// PushDocument uploads a board document. The server upserts the board by its
// stable id and bumps the version on every push.
func (c *Client) PushDocument(ctx context.Context, stableID string, document json.RawMessage) (*PushReceipt, error) {
	var rec PushReceipt
	path := fmt.Sprintf("/api/boards/%s/document", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodPut, path, document, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
