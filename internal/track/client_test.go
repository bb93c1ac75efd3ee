package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_GetDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "pk-test" || pass != "sk-test" {
			t.Errorf("missing or wrong basic auth: %s/%s", user, pass)
		}

		switch r.URL.Path {
		case "/api/public/v2/datasets/orders":
			fmt.Fprint(w, `{"id": "ds-1", "name": "orders"}`)
		case "/api/public/dataset-items":
			page := r.URL.Query().Get("page")
			if r.URL.Query().Get("datasetName") != "orders" {
				t.Errorf("datasetName = %s, want orders", r.URL.Query().Get("datasetName"))
			}
			switch page {
			case "1":
				fmt.Fprint(w, `{
					"data": [{"id": "item-1", "input": {"filename": "a.pdf", "email": "mail a"}, "expectedOutput": null}],
					"meta": {"page": 1, "totalPages": 2}
				}`)
			case "2":
				fmt.Fprint(w, `{
					"data": [{"id": "item-2", "input": {"filename": "b.pdf", "email": "mail b"}, "expectedOutput": {"order_number": "1001"}}],
					"meta": {"page": 2, "totalPages": 2}
				}`)
			default:
				t.Errorf("unexpected page %s", page)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, PublicKey: "pk-test", SecretKey: "sk-test"})

	ds, err := client.GetDataset(context.Background(), "orders")
	if err != nil {
		t.Fatalf("GetDataset() error = %v", err)
	}
	if ds.Name != "orders" {
		t.Errorf("name = %s, want orders", ds.Name)
	}
	if len(ds.Items) != 2 {
		t.Fatalf("items = %d, want 2 (pagination)", len(ds.Items))
	}
	if ds.Items[1].Input.Filename != "b.pdf" {
		t.Errorf("second item filename = %s, want b.pdf", ds.Items[1].Input.Filename)
	}

	expected, err := ds.Items[1].Expected()
	if err != nil {
		t.Fatalf("Expected() error = %v", err)
	}
	if expected == nil || expected.OrderNumber == nil || *expected.OrderNumber != "1001" {
		t.Errorf("expected output not decoded: %+v", expected)
	}

	if none, err := ds.Items[0].Expected(); err != nil || none != nil {
		t.Errorf("null expectedOutput should decode to nil, got %+v, %v", none, err)
	}
}

func TestClient_GetDataset_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, PublicKey: "pk", SecretKey: "sk"})

	_, err := client.GetDataset(context.Background(), "missing")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("GetDataset() error = %v, want ErrDatasetNotFound", err)
	}
}

func TestClient_CreateScore(t *testing.T) {
	var got Score
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/public/scores" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, PublicKey: "pk", SecretKey: "sk"})

	err := client.CreateScore(context.Background(), &Score{
		TraceID: "trace-1", Name: "avg_score", Value: 0.75,
	})
	if err != nil {
		t.Fatalf("CreateScore() error = %v", err)
	}
	if got.Name != "avg_score" || got.Value != 0.75 {
		t.Errorf("submitted score = %+v", got)
	}
}

func TestClient_WaitReady_Retries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, PublicKey: "pk", SecretKey: "sk"})

	if err := client.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
