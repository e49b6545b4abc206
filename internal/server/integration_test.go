//go:build integration

// Integration test against a running server: task run
//
// Run: go test -tags=integration ./internal/server/
package server_test

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
)

func baseURL() string {
	if u := os.Getenv("AGROMIND_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8086"
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(baseURL() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Fatalf("status=%q, want ok", body.Status)
	}
}

func TestFieldLifecycle(t *testing.T) {
	resp, err := http.Post(baseURL()+"/api/v1/fields", "application/json",
		strings.NewReader(`{"name":"Integration Test","coordinates":"44.31,23.79; 44.32,23.80; 44.32,23.79"}`))
	if err != nil {
		t.Fatal("create:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	geo, err := http.Get(baseURL() + "/api/v1/fields/" + created.ID + "/geometry")
	if err != nil {
		t.Fatal("geometry:", err)
	}
	geo.Body.Close()
	if geo.StatusCode != http.StatusOK {
		t.Fatalf("geometry status=%d", geo.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, baseURL()+"/api/v1/fields/"+created.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal("delete:", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Fatalf("delete status=%d", del.StatusCode)
	}
}
