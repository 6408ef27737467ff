package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare link", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"with query", "listen https://open.spotify.com/track/abc123?si=xyz now", "abc123", true},
		{"first of two", "https://open.spotify.com/track/first https://open.spotify.com/track/second", "first", true},
		{"album link", "https://open.spotify.com/album/abc123", "", false},
		{"plain http", "http://open.spotify.com/track/abc123", "", false},
		{"no link", "My Mix", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTrackID(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractTrackID(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPlaylistURL(t *testing.T) {
	if got := PlaylistURL("pl-1"); got != "https://open.spotify.com/playlist/pl-1" {
		t.Errorf("unexpected URL %s", got)
	}
}

// TestCheckCoverImageSize tests the 256 KiB boundary on the encoded payload
func TestCheckCoverImageSize(t *testing.T) {
	if err := CheckCoverImageSize(strings.Repeat("A", MaxCoverImageEncodedSize)); err != nil {
		t.Errorf("expected exactly 256 KiB to be accepted, got %v", err)
	}
	err := CheckCoverImageSize(strings.Repeat("A", MaxCoverImageEncodedSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge for 256 KiB + 1, got %v", err)
	}
}

func TestEncodeCoverImage(t *testing.T) {
	encoded, err := EncodeCoverImage(make([]byte, MaxCoverImageRawSize))
	if err != nil {
		t.Fatalf("expected the largest raw image to fit, got %v", err)
	}
	if len(encoded) != MaxCoverImageEncodedSize {
		t.Errorf("expected %d encoded bytes, got %d", MaxCoverImageEncodedSize, len(encoded))
	}

	if _, err = EncodeCoverImage(make([]byte, MaxCoverImageRawSize+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}
