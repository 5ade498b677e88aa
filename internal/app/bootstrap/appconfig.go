// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings (ports, TLS, logging, env); AppConfig is
// everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Proof image storage
	StorageType      string // Storage backend: "local"
	StorageLocalPath string // Local storage path (e.g., "./uploads/proofs")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files/proofs")

	// Redis cache for catalog and radar reads (blank disables caching)
	RedisURL string

	// Gemini API key for activity description drafts and interest
	// suggestions (blank disables AI assistance)
	GeminiAPIKey string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g., "http://localhost:3000")
	BaseURL string

	// SeedInterests installs the interest catalog at startup.
	SeedInterests bool
}
