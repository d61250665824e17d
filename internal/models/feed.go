package models

import "time"

// Announcement is a timed message shown on the event page.
type Announcement struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Content   string    `json:"content"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is one schedule entry for an event.
type Activity struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Team is a roster entry for an event.
type Team struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// PushEvent is one ingested GitHub push, shown in the live feed.
type PushEvent struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	RepoName  string    `json:"repo_name"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Branch    string    `json:"branch"`
	PushedAt  time.Time `json:"pushed_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NowPlaying is the most recent Spotify playback snapshot for an event.
type NowPlaying struct {
	EventID   string    `json:"event_id"`
	Track     string    `json:"track"`
	Artist    string    `json:"artist"`
	AlbumArt  string    `json:"album_art,omitempty"`
	IsPlaying bool      `json:"is_playing"`
	UpdatedAt time.Time `json:"updated_at"`
}
