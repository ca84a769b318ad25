package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", "Bearer", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestClientAuth(t *testing.T) {
	t.Run("sends bearer token", func(t *testing.T) {
		var gotAuth string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(User{ID: "host-1"})
		})

		if _, err := client.UserProfile(context.Background()); err != nil {
			t.Fatalf("UserProfile() error = %v", err)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer test-token")
		}
	})

	t.Run("401 yields a typed auth error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		})

		_, err := client.UserProfile(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
		}
		if apiErr.Message != "The access token expired" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if !IsAuthError(err) {
			t.Error("IsAuthError() = false, want true")
		}
	})

	t.Run("other statuses are not auth errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"status":404,"message":"Device not found"}}`))
		})

		_, err := client.UserProfile(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if IsAuthError(err) {
			t.Error("IsAuthError() = true for 404")
		}
	})
}

func TestClientPlayback(t *testing.T) {
	t.Run("GetPlaybackState", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(PlaybackState{
				Device:    Device{ID: "device-1", IsActive: true},
				IsPlaying: true,
				Item:      &Track{ID: "track-1", Name: "Song", URI: "spotify:track:track-1"},
			})
		})

		state, err := client.GetPlaybackState(context.Background())
		if err != nil {
			t.Fatalf("GetPlaybackState() error = %v", err)
		}
		if state == nil || !state.IsPlaying {
			t.Fatal("expected a playing state")
		}
		if state.Item.Name != "Song" {
			t.Errorf("Item.Name = %q", state.Item.Name)
		}
	})

	t.Run("GetPlaybackState idle returns nil", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		state, err := client.GetPlaybackState(context.Background())
		if err != nil {
			t.Fatalf("GetPlaybackState() error = %v", err)
		}
		if state != nil {
			t.Errorf("expected nil state for 204, got %+v", state)
		}
	})

	t.Run("SkipToNext targets the device", func(t *testing.T) {
		var gotPath, gotQuery, gotMethod string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query().Get("device_id")
			gotMethod = r.Method
			w.WriteHeader(http.StatusNoContent)
		})

		if err := client.SkipToNext(context.Background(), "device-1"); err != nil {
			t.Fatalf("SkipToNext() error = %v", err)
		}
		if gotMethod != "POST" || gotPath != "/me/player/next" {
			t.Errorf("request = %s %s", gotMethod, gotPath)
		}
		if gotQuery != "device-1" {
			t.Errorf("device_id = %q", gotQuery)
		}
	})

	t.Run("AddToQueue escapes the uri", func(t *testing.T) {
		var gotURI string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotURI = r.URL.Query().Get("uri")
			w.WriteHeader(http.StatusNoContent)
		})

		if err := client.AddToQueue(context.Background(), "spotify:track:abc123"); err != nil {
			t.Fatalf("AddToQueue() error = %v", err)
		}
		if gotURI != "spotify:track:abc123" {
			t.Errorf("uri = %q", gotURI)
		}
	})

	t.Run("GetQueue", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Queue{
				CurrentlyPlaying: &Track{ID: "now"},
				Queue:            []Track{{ID: "next-1"}, {ID: "next-2"}},
			})
		})

		queue, err := client.GetQueue(context.Background())
		if err != nil {
			t.Fatalf("GetQueue() error = %v", err)
		}
		if len(queue.Queue) != 2 {
			t.Errorf("queue length = %d, want 2", len(queue.Queue))
		}
	})
}

func TestClientLibrary(t *testing.T) {
	t.Run("HasSavedTracks", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/tracks/contains" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode([]bool{true, false})
		})

		saved, err := client.HasSavedTracks(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("HasSavedTracks() error = %v", err)
		}
		if len(saved) != 2 || !saved[0] || saved[1] {
			t.Errorf("saved = %v, want [true false]", saved)
		}
	})

	t.Run("HasSavedTracks requires ids", func(t *testing.T) {
		client := NewClient("t", "Bearer")
		if _, err := client.HasSavedTracks(context.Background(), nil); err == nil {
			t.Error("expected error for empty id list")
		}
	})

	t.Run("SaveTracks sends ids in body", func(t *testing.T) {
		var gotBody map[string][]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		})

		if err := client.SaveTracks(context.Background(), []string{"a", "b"}); err != nil {
			t.Fatalf("SaveTracks() error = %v", err)
		}
		if len(gotBody["ids"]) != 2 {
			t.Errorf("body ids = %v", gotBody["ids"])
		}
	})
}

func TestClientSearch(t *testing.T) {
	t.Run("builds query parameters", func(t *testing.T) {
		var got map[string]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			got = map[string]string{
				"q": q.Get("q"), "type": q.Get("type"),
				"market": q.Get("market"), "limit": q.Get("limit"), "offset": q.Get("offset"),
			}
			json.NewEncoder(w).Encode(SearchResults{
				Tracks: &SearchPage[Track]{Items: []Track{{ID: "t1"}}, Total: 1},
			})
		})

		results, err := client.Search(context.Background(), "daft punk", []string{"track", "album"}, "DE", 20, 40)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}

		if got["q"] != "daft punk" {
			t.Errorf("q = %q", got["q"])
		}
		if got["type"] != "track,album" {
			t.Errorf("type = %q", got["type"])
		}
		if got["market"] != "DE" || got["limit"] != "20" || got["offset"] != "40" {
			t.Errorf("market/limit/offset = %q/%q/%q", got["market"], got["limit"], got["offset"])
		}
		if results.Tracks == nil || len(results.Tracks.Items) != 1 {
			t.Error("expected one track result")
		}
	})

	t.Run("empty term is rejected", func(t *testing.T) {
		client := NewClient("t", "Bearer")
		if _, err := client.Search(context.Background(), "", nil, "", 0, 0); err == nil {
			t.Error("expected error for empty term")
		}
	})
}
