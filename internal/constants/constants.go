package constants

// Application
const (
	AppName        = "assetcatalog"
	AppDisplayName = "Asset Catalog"
)

// Paths
const (
	ConfigDir   = ".config/assetcatalog"
	ConfigFile  = "config.yaml"
	InternalDir = ".internal"
	CatalogDB   = "catalog.db"
)

// API
const (
	DefaultPort = 8420
)

// Database pragmas (optimized for low memory: < 2GB RAM)
var SQLitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-8000", // 8MB per connection
	"PRAGMA foreign_keys=ON",
}

// Logging
const (
	DefaultLogLevel    = "info"
	LogsDir            = "logs"
	LogsDirDebug       = "debug"
	LogsDirInfo        = "info"
	LogsDirWarn        = "warn"
	LogsDirError       = "error"
	LogFileExtension   = ".log"
	LogTimestampFormat = "2006-01-02 15:04:05"
)

// Shutdown
const (
	ShutdownTimeoutSecs = 10
)

// Pagination
const (
	DefaultAssetPageSize = 100
	MaxAssetPageSize     = 500
	DefaultTagPageSize    = 100
	MaxTagPageSize        = 1000
)

// Hash
const (
	HashAlgoPrefix   = "blake3:"
	HashHexLength    = 64 // BLAKE3 hex string length (32 bytes = 64 hex chars)
	MaxUploadExtLen  = 16 // a client-supplied extension longer than this is dropped
)

// Query layer bind-parameter chunking (SQLite-specific: its default
// SQLITE_MAX_VARIABLE_NUMBER build setting is what MaxBindParams stays under)
const (
	MaxBindParams = 800
)

// Roots and categories
const (
	RootModels = "models"
	RootInput  = "input"
	RootOutput = "output"
)

// Tag vocabulary
const (
	TagTypeUser   = "user"
	TagTypeSystem = "system"

	TagOriginManual    = "manual"
	TagOriginAutomatic = "automatic"

	MissingTag = "missing"
)

// Validation
const (
	MaxAssetNameLength = 512
	MaxTagNameLength   = 128
)

// MIME types, keyed by sanitized extension (no leading dot, lowercase)
var ExtensionMimeTypes = map[string]string{
	"glb":  "model/gltf-binary",
	"gltf": "model/gltf+json",
	"obj":  "text/plain",
	"fbx":  "application/octet-stream",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"json": "application/json",
	"txt":  "text/plain",
	"safetensors": "application/octet-stream",
	"ckpt": "application/octet-stream",
	"pt":   "application/octet-stream",
}

const DefaultMimeType = "application/octet-stream"

// Download streaming
const (
	DownloadChunkSize = 64 * 1024 // 64 KiB
)

// Compression
const (
	CompressionMinSizeBytes  = 1024   // Only compress API responses >= 1KB
	CompressionLevel         = 6      // gzip compression level (1-9, 6 is default balance)
	CompressionAPIPathPrefix = "/api/" // Only compress responses for API routes
)
