package device

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// SampleCache keeps short decoded sounds in memory so that pads are re-triggered without decoding again.
// A nil *SampleCache caches nothing.
type SampleCache struct {
	cache       *cache.Cache
	maxDuration time.Duration
}

func NewSampleCache(cacheParam config.CacheParam) *SampleCache {
	if !cacheParam.Enabled {
		return nil
	}
	ttl := time.Duration(cacheParam.TtlS) * time.Second
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SampleCache{
		cache:       cache.New(ttl, time.Minute),
		maxDuration: time.Duration(cacheParam.MaxDurationMs) * time.Millisecond,
	}
}

// Get returns a fresh streamer on a cached sound
func (c *SampleCache) Get(key string) (beep.StreamCloser, beep.Format, bool) {
	if c == nil {
		return nil, beep.Format{}, false
	}
	item, found := c.cache.Get(key)
	if !found {
		return nil, beep.Format{}, false
	}
	buffer := item.(*beep.Buffer)
	return bufferStreamer{buffer.Streamer(0, buffer.Len())}, buffer.Format(), true
}

// Load buffers streamer when it is short enough and returns the streamer to play in its place.
// Longer or unbounded streamers are returned unchanged.
func (c *SampleCache) Load(key string, streamer beep.StreamCloser, format beep.Format) (beep.StreamCloser, error) {
	if c == nil {
		return streamer, nil
	}
	sized, ok := streamer.(interface{ Len() int })
	if !ok || sized.Len() > format.SampleRate.N(c.maxDuration) {
		return streamer, nil
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	streamErr := streamer.Err()
	if err := streamer.Close(); err != nil {
		logrus.Warnf("Failed to close decoder of %s: %v", key, err)
	}
	if streamErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, streamErr)
	}

	c.cache.SetDefault(key, buffer)
	logrus.Debugf("Cached %d samples for %s", buffer.Len(), key)

	return bufferStreamer{buffer.Streamer(0, buffer.Len())}, nil
}

func (c *SampleCache) ItemCount() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

type bufferStreamer struct {
	beep.StreamSeeker
}

func (bufferStreamer) Close() error {
	return nil
}
