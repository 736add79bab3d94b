package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"assetcatalog/internal/catalog"
	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/hashutil"
	"assetcatalog/internal/sanitize"
)

// handleAssetsCollection dispatches GET (list) and POST (multipart upload)
// on /api/assets.
func (s *Server) handleAssetsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAssets(w, r)
	case http.MethodPost:
		s.uploadAsset(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner := ownerFromRequest(r)

	limit, offset := parsePageParams(r, constants.DefaultAssetPageSize, constants.MaxAssetPageSize)

	var metaFilters []database.MetadataFilter
	if raw := q.Get("metadata_filter"); raw != "" {
		var decoded map[string]any
		if err := jsonUnmarshalStrict(raw, &decoded); err != nil {
			WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidQuery, "metadata_filter must be a JSON object", nil)
			return
		}
		for k, v := range decoded {
			metaFilters = append(metaFilters, database.MetadataFilter{Key: k, Value: v})
		}
	}

	f := database.ListFilter{
		OwnerID:      owner,
		IncludeTags:  splitCSV(q.Get("include_tags")),
		ExcludeTags:  splitCSV(q.Get("exclude_tags")),
		Metadata:     metaFilters,
		NameContains: q.Get("name_contains"),
		SortBy:       q.Get("sort"),
		SortOrder:    q.Get("order"),
		Limit:        limit,
		Offset:       offset,
	}

	result, err := s.app.Services.Management.ListAssets(f)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"assets":   result.Rows,
		"total":    result.Total,
		"has_more": result.HasMore,
	})
}

// uploadAsset handles multipart upload: one "file" part plus optional
// "name", "hash", "tags" (comma-separated, first=root), and
// "user_metadata" (JSON object) fields.
func (s *Server) uploadAsset(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)

	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "request must be multipart/form-data", nil)
		return
	}

	var (
		tempPath, hash, clientFilename, expectedHash, name string
		size                                                int64
		tags                                                []string
		userMetadata                                        map[string]any
		gotFile                                              bool
	)
	// Remove the temp file on every return path. Once Upload has renamed
	// it into place or deleted it, there is nothing left to remove.
	defer func() {
		if tempPath != "" {
			os.Remove(tempPath)
		}
	}()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if tempPath != "" {
				s.app.Logger().Warn("upload multipart read failed after temp file created: %v", err)
			}
			WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "malformed multipart body", nil)
			return
		}

		switch part.FormName() {
		case "file":
			clientFilename = sanitize.OriginName(part.FileName())
			tempPath, hash, size, err = s.app.Services.Upload.StreamToTemp(part)
			part.Close()
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			gotFile = true
		case "name":
			name = readFormValue(part)
		case "hash":
			expectedHash = readFormValue(part)
		case "tags":
			tags = splitCSV(readFormValue(part))
		case "user_metadata":
			raw := readFormValue(part)
			if raw != "" {
				decoded, err := decodeJSONObject(raw)
				if err != nil {
					WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "user_metadata must be a JSON object", nil)
					return
				}
				userMetadata = decoded
			}
		default:
			io.Copy(io.Discard, part)
			part.Close()
		}
	}

	if !gotFile {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeMissingFile, "missing \"file\" part", nil)
		return
	}
	if size == 0 {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeEmptyUpload, "uploaded file is empty", nil)
		return
	}
	if len(name) > constants.MaxAssetNameLength {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "name exceeds maximum length", map[string]any{"max_length": constants.MaxAssetNameLength})
		return
	}

	result, err := s.app.Services.Upload.Upload(tempPath, size, hash, expectedHash, clientFilename, owner, catalog.UploadSpec{
		Name:         name,
		Tags:         tags,
		UserMetadata: userMetadata,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	status := http.StatusOK
	if result.CreatedNew {
		status = http.StatusCreated
	}
	WriteJSON(w, status, withCreatedNew(result.Detail, result.CreatedNew))
}

func readFormValue(part io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(part, 64*1024))
	return strings.TrimSpace(string(b))
}

func decodeJSONObject(raw string) (map[string]any, error) {
	var m map[string]any
	if err := jsonUnmarshalStrict(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// handleFromHash implements POST /api/assets/from-hash.
func (s *Server) handleFromHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Hash         string         `json:"hash"`
		Name         string         `json:"name"`
		Tags         []string       `json:"tags"`
		UserMetadata map[string]any `json:"user_metadata"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	hash, err := hashutil.Normalize(req.Hash)
	if err != nil {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidHash, "invalid hash format", map[string]any{"hash": req.Hash})
		return
	}

	owner := ownerFromRequest(r)
	detail, created, err := s.app.Services.Ingest.RegisterExistingAsset(hash, req.Name, owner, req.Tags, req.UserMetadata)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, withCreatedNew(*detail, created))
}

// withCreatedNew re-flattens an AssetInfoDetail's custom JSON encoding with
// a created_new flag merged in; AssetInfoDetail can't simply be embedded in
// an ad-hoc struct literal because its MarshalJSON would take over the
// whole outer value.
func withCreatedNew(detail database.AssetInfoDetail, createdNew bool) map[string]any {
	raw, _ := json.Marshal(detail)
	var m map[string]any
	json.Unmarshal(raw, &m)
	m["created_new"] = createdNew
	return m
}

// handleHashExists implements HEAD /api/assets/hash/{hash}.
func (s *Server) handleHashExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := pathTail(r, "/api/assets/hash/")
	normalized, err := hashutil.Normalize(hash)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	asset, err := database.GetAssetByHash(s.app.DB(), normalized)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if asset == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSeed implements POST /api/assets/seed.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Roots []string `json:"roots"`
	}
	// Body is optional; an empty/absent body scans every configured root.
	if r.ContentLength != 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			WriteServiceError(w, err)
			return
		}
	}

	roots := req.Roots
	if len(roots) == 0 {
		roots = s.app.Roots().All()
	}

	result, err := s.app.Services.Scanner.Seed(roots)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"seeded":           roots,
		"created":          result.Created,
		"skipped_existing": result.SkippedExisting,
		"orphans_pruned":   result.OrphansPruned,
		"total_seen":       result.TotalSeen,
		"duration_ms":      result.Duration.Milliseconds(),
	})
}

// handleAssetItem dispatches every /api/assets/{id}[/content|/tags] route.
func (s *Server) handleAssetItem(w http.ResponseWriter, r *http.Request) {
	rest := pathTail(r, "/api/assets/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	infoID := parts[0]
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		s.handleAssetDetailOrMutate(w, r, infoID)
	case "content":
		s.handleAssetContent(w, r, infoID)
	case "tags":
		s.handleAssetTags(w, r, infoID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleAssetDetailOrMutate(w http.ResponseWriter, r *http.Request, infoID string) {
	owner := ownerFromRequest(r)
	switch r.Method {
	case http.MethodGet:
		detail, err := s.app.Services.Management.GetAssetDetail(infoID, owner)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		if detail == nil {
			WriteServiceError(w, catalogerr.NotFound(infoID))
			return
		}
		WriteSuccess(w, detail)

	case http.MethodPut:
		var req struct {
			Name         *string         `json:"name"`
			Tags         *[]string       `json:"tags"`
			UserMetadata *map[string]any `json:"user_metadata"`
			PreviewID    *string         `json:"preview_id"`
		}
		if err := decodeJSONBody(r, &req); err != nil {
			WriteServiceError(w, err)
			return
		}
		if req.Name != nil && len(*req.Name) > constants.MaxAssetNameLength {
			WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "name exceeds maximum length", map[string]any{"max_length": constants.MaxAssetNameLength})
			return
		}

		fields := catalog.UpdateFields{Name: req.Name}
		if req.Tags != nil {
			fields.Tags = *req.Tags
			fields.HasTags = true
		}
		if req.UserMetadata != nil {
			fields.UserMetadata = *req.UserMetadata
			fields.HasMetadata = true
		}

		detail, err := s.app.Services.Management.UpdateAsset(infoID, owner, fields)
		if err != nil {
			WriteServiceError(w, err)
			return
		}

		if req.PreviewID != nil {
			detail, err = s.app.Services.Management.SetAssetPreview(infoID, owner, *req.PreviewID)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
		}

		WriteSuccess(w, detail)

	case http.MethodDelete:
		deleteContent := true
		switch strings.ToLower(r.URL.Query().Get("delete_content")) {
		case "0", "false", "no":
			deleteContent = false
		}
		found, err := s.app.Services.Management.DeleteAssetReference(infoID, owner, deleteContent)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		if !found {
			WriteServiceError(w, catalogerr.NotFound(infoID))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAssetContent(w http.ResponseWriter, r *http.Request, infoID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	owner := ownerFromRequest(r)
	resolved, err := s.app.Services.Download.ResolveContent(infoID, owner)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	streamFile(w, r, resolved)
}

func (s *Server) handleAssetTags(w http.ResponseWriter, r *http.Request, infoID string) {
	owner := ownerFromRequest(r)

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	if len(req.Tags) == 0 || len(req.Tags) > constants.MaxTagPageSize {
		WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "tags must be a non-empty list", map[string]any{"max": constants.MaxTagPageSize})
		return
	}
	for _, t := range req.Tags {
		if len(t) > constants.MaxTagNameLength {
			WriteError(w, http.StatusBadRequest, constants.ErrCodeInvalidBody, "tag name exceeds maximum length", map[string]any{"max_length": constants.MaxTagNameLength})
			return
		}
	}

	var detail any
	var err error
	switch r.Method {
	case http.MethodPost:
		detail, err = s.app.Services.Management.AddTags(infoID, owner, req.Tags)
	case http.MethodDelete:
		detail, err = s.app.Services.Management.RemoveTags(infoID, owner, req.Tags)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, detail)
}
