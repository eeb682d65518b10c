package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want %q", got, "test-agent")
		}
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("payload"))
		case "/json":
			w.Write([]byte(`{"name":"mix"}`))
		case "/broken":
			w.Write([]byte(`{"name":`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-agent", time.Second)

	body, err := client.Get(context.Background(), srv.URL+"/ok")
	if err != nil || string(body) != "payload" {
		t.Fatalf("Get() = %q, %v", body, err)
	}

	var v struct{ Name string }
	if err := client.GetJSON(context.Background(), srv.URL+"/json", &v); err != nil || v.Name != "mix" {
		t.Fatalf("GetJSON() = %+v, %v", v, err)
	}

	var fe *FetchError
	if err := client.GetJSON(context.Background(), srv.URL+"/broken", &v); !errors.As(err, &fe) {
		t.Fatalf("GetJSON() error = %v, want *FetchError", err)
	}
}

func TestClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient("", 0).DownloadBytes(context.Background(), srv.URL+"/missing.mp3")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if !fe.NotFound() || fe.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fe.StatusCode)
	}
	if fe.URL != srv.URL+"/missing.mp3" {
		t.Errorf("URL = %q", fe.URL)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient("", time.Second).Get(context.Background(), url)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.StatusCode != 0 || fe.Err == nil {
		t.Errorf("got StatusCode=%d Err=%v, want transport error", fe.StatusCode, fe.Err)
	}
}
