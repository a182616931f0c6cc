package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// rawEndpointMarker appears in object URLs issued against the raw R2 endpoint
// rather than the configured public base.
const rawEndpointMarker = ".r2.cloudflarestorage.com/"

// GenerationKey builds the storage key for an artifact belonging to a generation.
func GenerationKey(generationID, filename string) string {
	return fmt.Sprintf("generations/%s/%s", generationID, filename)
}

// UploadKey builds the storage key for a directly uploaded source image.
func UploadKey(ext string) (uploadID, key string) {
	uploadID = uuid.NewString()
	return uploadID, fmt.Sprintf("uploads/%s/original.%s", uploadID, ext)
}

// ResolveKey maps a public artifact URL back to its opaque storage key. Two
// historical URL shapes exist: publicBase + "/" + key, and the raw endpoint
// form https://<account>.r2.cloudflarestorage.com/<bucket>/<key>. Anything
// else is assumed to already be a bare key and is returned unchanged.
func ResolveKey(publicBase, bucket, url string) string {
	publicBase = trimTrailingSlash(publicBase)

	if publicBase != "" && strings.HasPrefix(url, publicBase) {
		return strings.TrimPrefix(strings.TrimPrefix(url, publicBase), "/")
	}

	if idx := strings.Index(url, rawEndpointMarker); idx >= 0 {
		rest := url[idx+len(rawEndpointMarker):]
		if rest == "" {
			return url
		}
		if bucket != "" {
			if first, remainder, ok := strings.Cut(rest, "/"); ok && first == bucket {
				return remainder
			}
		}
		return rest
	}

	return url
}

// MIMETypeForKey guesses the content type of a stored object from its key
// extension. Unknown extensions default to PNG, matching what the pipeline
// writes.
func MIMETypeForKey(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return "image/png"
	}
	switch strings.ToLower(key[idx+1:]) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "avif":
		return "image/avif"
	case "mp4":
		return "video/mp4"
	default:
		return "image/png"
	}
}
