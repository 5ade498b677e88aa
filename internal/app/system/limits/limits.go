// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize caps JSON request bodies (activity/goal payloads).
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxProofImageSize caps a single proof image upload.
	MaxProofImageSize = 10 << 20 // 10 MB
)
