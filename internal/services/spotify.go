// Spotify API implementation for the now-playing feed
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlayback represents the player state from /me/player/currently-playing.
type SpotifyPlayback struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *SpotifyTrack `json:"item"`
}

// NowPlaying converts the playback state into the snapshot stored per
// event. Returns a stopped snapshot when nothing is playing.
func (p *SpotifyPlayback) NowPlaying(eventID string) *models.NowPlaying {
	np := &models.NowPlaying{EventID: eventID}
	if p == nil || p.Item == nil {
		return np
	}

	np.IsPlaying = p.IsPlaying
	np.Track = p.Item.Name
	if len(p.Item.Artists) > 0 {
		np.Artist = p.Item.Artists[0].Name
	}
	if len(p.Item.Album.Images) > 0 {
		np.AlbumArt = p.Item.Album.Images[0].URL
	}
	return np
}

// SpotifyService talks to the Spotify API on behalf of an event organizer.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a Spotify service from the configured
// credentials.
func NewSpotifyService(conf shared.SpotifyConfig) (*SpotifyService, error) {
	if conf.ClientID == "" || conf.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingConfig)
	}

	redirectURI := conf.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8484/callback"
	}

	config := &oauth2.Config{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-playback-state",
			"user-read-currently-playing",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for organizer login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying [oauth2.Config] for callback
// handling.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate exchanges an authorization code for a token and installs
// the auto-refreshing client.
func (s *SpotifyService) Authenticate(ctx context.Context, authCode string) error {
	if authCode == "" {
		return fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	token, err := s.config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// SetToken installs a previously obtained token, e.g. one restored from
// disk between CLI invocations.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Token returns the current OAuth2 token, nil before authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) (int, error) {
	if s.token == nil {
		return 0, fmt.Errorf("%w: call Authenticate first", shared.ErrUnauthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%w: spotify returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// CurrentlyPlaying fetches the organizer's player state. Spotify answers
// 204 when nothing is playing; that maps to a nil-item playback rather
// than an error.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*SpotifyPlayback, error) {
	var playback SpotifyPlayback
	status, err := s.doRequest(ctx, "/me/player/currently-playing", &playback)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return &SpotifyPlayback{}, nil
	}
	return &playback, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if _, err := s.doRequest(ctx, "/tracks/"+trackID, &track); err != nil {
		return nil, err
	}
	return &track, nil
}
