package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache keeps decoded images keyed by path so that repeated scans,
// overlays and crops of the same file decode it only once.
//
// ImageCache is safe for concurrent use. Cached images stay in memory until
// Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*cachedImage
}

type cachedImage struct {
	img    image.Image
	format string
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*cachedImage),
	}
}

// Load returns the decoded image at path, reading it from disk on first use.
//
// The path string is the cache key; a relative and an absolute path to the
// same file are cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

func (c *ImageCache) load(path string) (*cachedImage, error) {
	c.mu.RLock()
	if entry, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	entry := &cachedImage{img: img, format: format}

	c.mu.Lock()
	c.images[path] = entry
	c.mu.Unlock()

	return entry, nil
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*cachedImage)
	c.mu.Unlock()
}

// Evict removes one image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo describes a loaded image file.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the name the decoder registered under: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp".
	Format string `json:"format"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its size and format.
// The format comes from the file contents, not its extension.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	entry, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bounds := entry.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        entry.format,
		FileSizeBytes: stat.Size(),
	}, nil
}
