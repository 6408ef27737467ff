package domain

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

// MaxCoverImageEncodedSize is the largest accepted base64 encoded cover image (256 KiB)
const MaxCoverImageEncodedSize = 256 * 1024

// MaxCoverImageRawSize is the largest raw image whose encoding fits MaxCoverImageEncodedSize
const MaxCoverImageRawSize = MaxCoverImageEncodedSize / 4 * 3

const playlistURLFormat = "https://open.spotify.com/playlist/%s"

var trackLinkPattern = regexp.MustCompile(`https://open\.spotify\.com/track/([a-zA-Z0-9]+)`)

// PlaylistURL returns the canonical link to a playlist
func PlaylistURL(playlistID string) string {
	return fmt.Sprintf(playlistURLFormat, playlistID)
}

// ExtractTrackID returns the track ID of the first track link in text
func ExtractTrackID(text string) (string, bool) {
	match := trackLinkPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// EncodeCoverImage base64 encodes image bytes and enforces the size limit
func EncodeCoverImage(image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	if err := CheckCoverImageSize(encoded); err != nil {
		return "", err
	}
	return encoded, nil
}

// CheckCoverImageSize rejects encoded images over MaxCoverImageEncodedSize
func CheckCoverImageSize(encoded string) error {
	if len(encoded) > MaxCoverImageEncodedSize {
		return fmt.Errorf("%w: encoded image is %d bytes, limit is %d", ErrPayloadTooLarge, len(encoded), MaxCoverImageEncodedSize)
	}
	return nil
}
