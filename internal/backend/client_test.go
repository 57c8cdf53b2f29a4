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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gridboard/internal/config"
)

func TestClientListBoardsSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/boards" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Board{{ID: 1, StableID: "ops-wall", Name: "Ops Wall", Version: 3}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok-123")
	boards, err := c.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(boards) != 1 || boards[0].StableID != "ops-wall" || boards[0].Version != 3 {
		t.Fatalf("unexpected boards: %+v", boards)
	}
}

func TestClientPushDocumentRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/boards/ops-wall/document" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var doc map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if doc["name"] != "Fleet" {
			t.Errorf("document name = %v", doc["name"])
		}
		json.NewEncoder(w).Encode(PushReceipt{BoardID: 7, StableID: "ops-wall", Version: 4})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	rec, err := c.PushDocument(context.Background(), "ops-wall", json.RawMessage(`{"name":"Fleet"}`))
	if err != nil {
		t.Fatalf("PushDocument: %v", err)
	}
	if rec.Version != 4 || rec.StableID != "ops-wall" {
		t.Fatalf("unexpected receipt: %+v", rec)
	}
}

func TestClientErrorStatusSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such board", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if _, err := c.PullDocument(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestNewClientFromConfigAppliesBackendSettings(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend.BaseURL = "https://boards.example.com/"
	cfg.Backend.TimeoutMs = 2500

	c := NewClientFromConfig(cfg, "kr-token")
	if c.BaseURL != "https://boards.example.com" {
		t.Fatalf("BaseURL = %q, want trailing slash trimmed", c.BaseURL)
	}
	if c.Token != "kr-token" {
		t.Fatalf("Token = %q", c.Token)
	}
	if c.client.Timeout != 2500*time.Millisecond {
		t.Fatalf("Timeout = %v, want 2.5s", c.client.Timeout)
	}
	if c.client.Transport != nil {
		t.Fatalf("Transport should be default when TLSInsecure is false")
	}
}
