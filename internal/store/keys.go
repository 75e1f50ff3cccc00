package store

import (
	"sync"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

const mediaPrefix = "media:"

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// "media:" + type + ":" + external id fits comfortably.
		return make([]byte, 0, 128)
	},
}

// mediaKey builds "media:{type}:{externalID}" in a pooled buffer.
// Callers MUST call releaseKey when done with the key.
//
//	key := mediaKey(domain.MediaAnime, "5114")
//	defer releaseKey(key)
func mediaKey(t domain.MediaType, externalID domain.ExternalID) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, mediaPrefix...)
	buf = append(buf, t...)
	buf = append(buf, ':')
	buf = append(buf, externalID...)
	return buf
}

// mediaTypePrefix returns the scan prefix for one media type, or for every
// record when t is empty.
func mediaTypePrefix(t domain.MediaType) []byte {
	if t == "" {
		return []byte(mediaPrefix)
	}
	return []byte(mediaPrefix + string(t) + ":")
}

// releaseKey returns a key buffer to the pool.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Only pool buffers that have reasonable capacity
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
