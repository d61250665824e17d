package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duskmoth/sidestage/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewSpotifyService(shared.SpotifyConfig{
		ClientID:     "id",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	service.baseURL = server.URL
	service.token = &oauth2.Token{AccessToken: "tok"}
	return service
}

func TestNewSpotifyService(t *testing.T) {
	_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id"})
	if !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected missing config error, got %v", err)
	}

	service, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url := service.GetAuthURL("state123"); url == "" {
		t.Error("expected a non-empty auth URL")
	}
}

func TestCurrentlyPlaying(t *testing.T) {
	t.Run("active playback", func(t *testing.T) {
		service := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/currently-playing" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"is_playing": true,
				"progress_ms": 12000,
				"item": {
					"id": "t1",
					"name": "Daydreaming",
					"artists": [{"id": "a1", "name": "Radiohead"}],
					"album": {"id": "al1", "name": "A Moon Shaped Pool", "images": [{"url": "https://img/art.jpg"}]}
				}
			}`))
		})

		playback, err := service.CurrentlyPlaying(context.Background())
		if err != nil {
			t.Fatalf("CurrentlyPlaying failed: %v", err)
		}
		if !playback.IsPlaying || playback.Item == nil || playback.Item.Name != "Daydreaming" {
			t.Errorf("unexpected playback: %+v", playback)
		}

		np := playback.NowPlaying("event-1")
		if np.Track != "Daydreaming" || np.Artist != "Radiohead" || !np.IsPlaying {
			t.Errorf("unexpected snapshot: %+v", np)
		}
		if np.AlbumArt != "https://img/art.jpg" {
			t.Errorf("unexpected album art: %q", np.AlbumArt)
		}
	})

	t.Run("nothing playing maps 204 to an empty playback", func(t *testing.T) {
		service := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		playback, err := service.CurrentlyPlaying(context.Background())
		if err != nil {
			t.Fatalf("CurrentlyPlaying failed: %v", err)
		}
		if playback.Item != nil || playback.IsPlaying {
			t.Errorf("expected empty playback, got %+v", playback)
		}

		np := playback.NowPlaying("event-1")
		if np.IsPlaying || np.Track != "" {
			t.Errorf("expected stopped snapshot, got %+v", np)
		}
	})

	t.Run("unauthenticated client is rejected locally", func(t *testing.T) {
		service := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should reach the API")
		})
		service.token = nil

		_, err := service.CurrentlyPlaying(context.Background())
		if !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("expected unauthenticated error, got %v", err)
		}
	})

	t.Run("API errors surface with the status", func(t *testing.T) {
		service := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := service.CurrentlyPlaying(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected API request error, got %v", err)
		}
	})
}
