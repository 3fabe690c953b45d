package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSetsDefaultHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: New(Options{
		Timeout: 5 * time.Second,
		Headers: map[string]string{"User-Agent": "shopsync-test", "X-Custom": "default"},
	})}

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("X-Custom", "explicit")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	resp.Body.Close()

	if gotUA != "shopsync-test" {
		t.Errorf("User-Agent = %q, want shopsync-test", gotUA)
	}
	if gotCustom != "explicit" {
		t.Errorf("X-Custom = %q, want explicit (caller header wins)", gotCustom)
	}
	if req.Header.Get("User-Agent") != "" {
		t.Error("caller's request was modified")
	}
}

func TestNewWithoutHeadersReturnsBase(t *testing.T) {
	rt := New(Options{})
	if _, ok := rt.(*http.Transport); !ok {
		t.Errorf("New() = %T, want *http.Transport", rt)
	}

	rt = New(Options{ChromeTLS: true, Timeout: time.Second})
	if _, ok := rt.(*chromeTransport); !ok {
		t.Errorf("New(ChromeTLS) = %T, want *chromeTransport", rt)
	}
}
