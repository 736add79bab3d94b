package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/hashutil"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// UploadSpec carries the caller-supplied fields of an upload request: the
// display name, requested tags (first tag is the destination root, second
// — for models — the category), and arbitrary user metadata.
type UploadSpec struct {
	Name         string
	Tags         []string
	UserMetadata map[string]any
}

// UploadResult mirrors the original AssetCreated payload.
type UploadResult struct {
	Detail     database.AssetInfoDetail
	CreatedNew bool
}

// UploadService streams multipart upload bodies to a temp file, hashes
// them, and either dedupes against existing content or moves the file into
// its content-addressed destination and ingests it.
type UploadService struct {
	app    AppState
	ingest *IngestService
	log    *logger.Logger
}

func NewUploadService(app AppState, ingest *IngestService, log *logger.Logger) *UploadService {
	return &UploadService{app: app, ingest: ingest, log: log}
}

// StreamToTemp copies r into a fresh temp file while hashing it, enforcing
// no size cap of its own (the HTTP layer is expected to have already
// wrapped r in whatever request-body limit applies). Returns the temp
// file's path, canonical hash, and size; the caller owns cleanup of the
// temp file via os.Remove once done with it.
func (s *UploadService) StreamToTemp(r io.Reader) (tempPath, hash string, size int64, err error) {
	f, err := os.CreateTemp("", "assetcatalog-upload-*")
	if err != nil {
		return "", "", 0, catalogerr.WrapInternal(fmt.Errorf("creating temp file: %w", err))
	}
	tempPath = f.Name()

	digestHex, n, err := hashutil.StreamAndHash(f, r)
	closeErr := f.Close()
	if err != nil {
		os.Remove(tempPath)
		return "", "", 0, catalogerr.Wrap(constants.ErrCodeUploadIOError, "failed to stream upload to disk", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return "", "", 0, catalogerr.WrapInternal(closeErr)
	}

	return tempPath, hashutil.Canonical(digestHex), n, nil
}

// Upload hashes tempPath, compares it against expectedHash when given, and
// either dedupes onto an existing asset or renames the temp file into its
// content-addressed destination and ingests it fresh. tempPath is always
// consumed: removed on dedupe, renamed on new-content ingest.
func (s *UploadService) Upload(tempPath string, size int64, hash, expectedHash, clientFilename, ownerID string, spec UploadSpec) (*UploadResult, error) {
	if err := validateUploadTags(spec.Tags); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	if expectedHash != "" {
		normalizedExpected, err := hashutil.Normalize(expectedHash)
		if err != nil {
			os.Remove(tempPath)
			return nil, catalogerr.ErrInvalidHash.WithDetails(map[string]any{"hash": expectedHash})
		}
		if normalizedExpected != hash {
			os.Remove(tempPath)
			return nil, catalogerr.ErrHashMismatch.WithDetails(map[string]any{"expected": normalizedExpected, "actual": hash})
		}
	}

	existing, err := database.GetAssetByHash(s.app.DB(), hash)
	if err != nil {
		os.Remove(tempPath)
		return nil, catalogerr.WrapInternal(err)
	}

	if existing != nil {
		os.Remove(tempPath)
		name := displayName(spec.Name, clientFilename, hash)
		detail, _, err := s.ingest.RegisterExistingAsset(hash, name, ownerID, spec.Tags, spec.UserMetadata)
		if err != nil {
			return nil, err
		}
		return &UploadResult{Detail: *detail, CreatedNew: false}, nil
	}

	destAbs, mimeType, err := s.placeNewContent(tempPath, hash, clientFilename, spec.Tags)
	if err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	stat, err := os.Stat(destAbs)
	if err != nil {
		return nil, catalogerr.WrapInternal(fmt.Errorf("statting ingested file: %w", err))
	}

	name := displayName(spec.Name, clientFilename, hash)
	result, err := s.ingest.IngestFileFromPath(IngestParams{
		AbsPath:      destAbs,
		Hash:         hash,
		SizeBytes:    stat.Size(),
		MtimeNs:      stat.ModTime().UnixNano(),
		MimeType:     mimeType,
		Name:         name,
		OwnerID:      ownerID,
		Tags:         spec.Tags,
		UserMetadata: spec.UserMetadata,
		TagOrigin:    constants.TagOriginManual,
	})
	if err != nil {
		return nil, err
	}
	if result.AssetInfoID == "" {
		return nil, catalogerr.WrapInternal(fmt.Errorf("ingest produced no asset info id"))
	}

	detail, err := database.GetAssetInfoDetail(s.app.DB(), result.AssetInfoID)
	if err != nil {
		return nil, catalogerr.WrapInternal(err)
	}
	if detail == nil {
		return nil, catalogerr.NotFound(result.AssetInfoID)
	}

	return &UploadResult{Detail: *detail, CreatedNew: result.AssetCreated}, nil
}

// validateUploadTags enforces the root/category tag contract — first tag
// must name a root; a models upload requires a second category tag — once,
// before branching on whether the content's hash already exists, so a
// duplicate-hash upload is held to the same contract as a new one.
func validateUploadTags(tags []string) error {
	if len(tags) == 0 {
		return catalogerr.ErrInvalidBody.WithDetails(map[string]any{"reason": "first tag must name a root"})
	}
	if tags[0] == constants.RootModels && len(tags) < 2 {
		return catalogerr.ErrInvalidBody.WithDetails(map[string]any{"reason": "models uploads require a category tag"})
	}
	return nil
}

// placeNewContent resolves the destination directory from the upload's
// root/category tags (already validated by validateUploadTags), builds the
// hash-derived destination filename, and atomically renames tempPath into
// place.
func (s *UploadService) placeNewContent(tempPath, hash, clientFilename string, tags []string) (destAbs, mimeType string, err error) {
	root := tags[0]
	category := ""
	if root == constants.RootModels {
		category = tags[1]
	}

	base, err := s.app.Roots().BaseFor(root, category)
	if err != nil {
		return "", "", catalogerr.ErrInvalidBody.WithDetails(map[string]any{"reason": err.Error()})
	}

	if err := os.MkdirAll(base, constants.DirPermissions); err != nil {
		return "", "", catalogerr.WrapInternal(fmt.Errorf("creating destination directory: %w", err))
	}

	ext := extractExt(clientFilename)
	rawHash := strings.TrimPrefix(hash, constants.HashAlgoPrefix)
	destAbs = filepath.Join(base, rawHash+ext)

	if err := pathutil.EnsureWithinBase(destAbs, base); err != nil {
		return "", "", catalogerr.WrapInternal(err)
	}

	if err := os.Rename(tempPath, destAbs); err != nil {
		return "", "", catalogerr.Wrap(constants.ErrCodeUploadIOError, "failed to move uploaded file into place", err)
	}

	mimeType = guessMimeType(ext)
	return destAbs, mimeType, nil
}

func extractExt(clientFilename string) string {
	ext := filepath.Ext(clientFilename)
	if len(ext) == 0 || len(ext) > constants.MaxUploadExtLen {
		return ""
	}
	return ext
}

func guessMimeType(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if mt, ok := constants.ExtensionMimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return constants.DefaultMimeType
}

func displayName(requestedName, clientFilename, hash string) string {
	if strings.TrimSpace(requestedName) != "" {
		return strings.TrimSpace(requestedName)
	}
	if strings.TrimSpace(clientFilename) != "" {
		return strings.TrimSpace(clientFilename)
	}
	return hash
}
