package utils

import (
	"testing"
	"time"
)

func TestUserCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	enc, err := EncodeUserCursor(createdAt, "user-123")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	dec, err := DecodeUserCursor(enc)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !dec.CreatedAt.Equal(createdAt) || dec.ID != "user-123" {
		t.Fatalf("round trip mismatch: %+v", dec)
	}
}

func TestDecodeUserCursorRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not json", "bm90LWpzb24"},
		{"missing fields", "e30"}, // {}
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeUserCursor(tc.cursor); err == nil {
				t.Fatalf("cursor %q decoded without error", tc.cursor)
			}
		})
	}
}
