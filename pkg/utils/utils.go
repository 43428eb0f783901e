package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	NewSessionID() string
	HashAudio(data []byte) string
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewSessionID mints an id for sessions opened without a client-provided one.
func (u *utils) NewSessionID() string {
	return uuid.NewString()
}

// HashAudio derives the transcript-cache key from the raw audio content.
func (u *utils) HashAudio(data []byte) string {
	sum := sha256.Sum256(data)
	return "transcript:" + hex.EncodeToString(sum[:])
}
