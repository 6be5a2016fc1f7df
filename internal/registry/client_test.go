package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-cmp/cmp"
)

const ripgrepBody = `{
  "crate": {"name": "ripgrep", "max_version": "14.1.0"},
  "versions": [
    {"num": "14.1.0", "yanked": false},
    {"num": "14.0.4", "yanked": true},
    {"num": "13.0.0", "yanked": false}
  ]
}`

func newServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/api/v1/crates/ripgrep" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("request without User-Agent")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func versionStrings(vs []*semver.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func TestVersions(t *testing.T) {
	srv := newServer(t, http.StatusOK, ripgrepBody, nil)
	client := New(Options{BaseURL: srv.URL + "/", UserAgent: "test-agent"})

	got, err := client.Versions(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	want := []string{"14.1.0", "14.0.4", "13.0.0"}
	if diff := cmp.Diff(want, versionStrings(got)); diff != "" {
		t.Errorf("Versions mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionsSkipYanked(t *testing.T) {
	srv := newServer(t, http.StatusOK, ripgrepBody, nil)
	client := New(Options{BaseURL: srv.URL, SkipYanked: true})

	got, err := client.Versions(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	want := []string{"14.1.0", "13.0.0"}
	if diff := cmp.Diff(want, versionStrings(got)); diff != "" {
		t.Errorf("Versions mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionsEmptyList(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"crate":{"name":"ripgrep"},"versions":[]}`, nil)
	client := New(Options{BaseURL: srv.URL})

	got, err := client.Versions(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Versions = %v, want empty", got)
	}
}

func TestVersionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"errors":[]}`},
		{name: "invalid json", status: http.StatusOK, body: `{"crate":`},
		{name: "missing crate", status: http.StatusOK, body: `{"versions":[{"num":"1.0.0"}]}`},
		{name: "missing versions", status: http.StatusOK, body: `{"crate":{"name":"ripgrep"}}`},
		{name: "missing num", status: http.StatusOK, body: `{"crate":{"name":"ripgrep"},"versions":[{"id":1}]}`},
		{name: "bad num", status: http.StatusOK, body: `{"crate":{"name":"ripgrep"},"versions":[{"num":"one"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			client := New(Options{BaseURL: srv.URL})
			if _, err := client.Versions(context.Background(), "ripgrep"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestVersionsNotFound(t *testing.T) {
	srv := newServer(t, http.StatusOK, ripgrepBody, nil)
	client := New(Options{BaseURL: srv.URL})

	_, err := client.Versions(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestVersionsUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusOK, ripgrepBody, &hits)

	cache := NewCache(t.TempDir(), time.Hour)
	client := New(Options{BaseURL: srv.URL, Cache: cache})

	for i := 0; i < 3; i++ {
		got, err := client.Versions(context.Background(), "ripgrep")
		if err != nil {
			t.Fatalf("Versions #%d: %v", i, err)
		}
		if len(got) != 3 {
			t.Fatalf("Versions #%d returned %d versions", i, len(got))
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server hit %d times, want 1", n)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	releases := []Release{{Num: "0.24.0"}, {Num: "0.23.1", Yanked: true}}
	if err := cache.Store(DefaultURL, "bat", releases); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := cache.Lookup(DefaultURL, "bat")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if diff := cmp.Diff(releases, got); diff != "" {
		t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cache.Lookup("https://mirror.example.com", "bat"); ok {
		t.Fatal("expected entry from another registry to miss")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Lookup(DefaultURL, "bat"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if _, ok := cache.Lookup(DefaultURL, "ripgrep"); ok {
		t.Fatal("expected unknown crate to miss")
	}
}

func TestCachedReleasesHonourSkipYanked(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusOK, ripgrepBody, &hits)
	dir := t.TempDir()

	warm := New(Options{BaseURL: srv.URL, Cache: NewCache(dir, time.Hour)})
	if _, err := warm.Versions(context.Background(), "ripgrep"); err != nil {
		t.Fatalf("Versions: %v", err)
	}

	strict := New(Options{BaseURL: srv.URL, SkipYanked: true, Cache: NewCache(dir, time.Hour)})
	got, err := strict.Versions(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if diff := cmp.Diff([]string{"14.1.0", "13.0.0"}, versionStrings(got)); diff != "" {
		t.Errorf("Versions mismatch (-want +got):\n%s", diff)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server hit %d times, want 1", n)
	}
}

func TestCacheScopedToRegistry(t *testing.T) {
	dir := t.TempDir()
	first := newServer(t, http.StatusOK, ripgrepBody, nil)
	second := newServer(t, http.StatusOK, `{"crate":{"name":"ripgrep"},"versions":[{"num":"9.9.9","yanked":false}]}`, nil)

	if _, err := New(Options{BaseURL: first.URL, Cache: NewCache(dir, time.Hour)}).Versions(context.Background(), "ripgrep"); err != nil {
		t.Fatalf("Versions: %v", err)
	}

	got, err := New(Options{BaseURL: second.URL, Cache: NewCache(dir, time.Hour)}).Versions(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if diff := cmp.Diff([]string{"9.9.9"}, versionStrings(got)); diff != "" {
		t.Errorf("Versions mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCacheDisabled(t *testing.T) {
	if c := NewCache(t.TempDir(), 0); c != nil {
		t.Fatal("zero ttl should disable the cache")
	}
	if c := NewCache("", time.Hour); c != nil {
		t.Fatal("empty dir should disable the cache")
	}
}
