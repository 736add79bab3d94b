package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// ScanResult reports what a seed pass actually did, for logging and for
// the on-demand HTTP trigger's response body.
type ScanResult struct {
	Created         int
	SkippedExisting int
	OrphansPruned   int
	TotalSeen       int
	Duration        time.Duration
}

// Scanner reconciles the catalog's AssetCacheState rows against what is
// actually on disk, and seeds new Asset/AssetCacheState/AssetInfo rows for
// files it has not seen before. It can run on demand or on a ticker.
//
// Each of its four phases commits independently; a failure in one phase is
// logged and the remaining phases still run, matching seed_assets's
// per-phase try/except in the source this is grounded on.
type Scanner struct {
	app AppState
	log *logger.Logger

	stopCh  chan struct{}
	running bool
	mu      sync.Mutex
}

func NewScanner(app AppState, log *logger.Logger) *Scanner {
	return &Scanner{app: app, log: log}
}

// Start launches a periodic scan every interval. Safe to call once;
// subsequent calls before Stop are no-ops.
func (s *Scanner) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.log.Info("[scanner] periodic scan started (interval: %v)", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				s.log.Info("[scanner] periodic scan stopped")
				return
			case <-ticker.C:
				if _, err := s.Seed(s.app.Roots().All()); err != nil {
					s.log.Error("[scanner] periodic scan failed: %v", err)
				}
			}
		}
	}()
}

// Stop signals the periodic scan goroutine to exit.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

// Seed runs all four phases over the given subset of roots.
func (s *Scanner) Seed(roots []string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{}

	existingPaths := make(map[string]bool)
	for _, root := range roots {
		survivors, err := s.reconcileRoot(root)
		if err != nil {
			s.log.Error("[scanner] reconcile failed for root %s: %v", root, err)
			continue
		}
		for _, p := range survivors {
			existingPaths[p] = true
		}
	}

	if pruned, err := s.pruneOrphans(roots); err != nil {
		s.log.Error("[scanner] orphan pruning failed: %v", err)
	} else {
		result.OrphansPruned = pruned
	}

	paths := s.discoverFiles(roots)
	result.TotalSeen = len(paths)

	var specs []seedSpec
	tagSet := map[string]bool{}
	for _, p := range paths {
		if existingPaths[p] {
			result.SkippedExisting++
			continue
		}
		fi, err := os.Lstat(p)
		if err != nil || fi.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if fi.Size() == 0 {
			continue
		}

		root, category, base, err := s.app.Roots().ClassifyWithBase(p)
		if err != nil {
			continue
		}
		name, tags := pathutil.NameAndTags(p, root, category)
		fname := relativeFilenameOrEmpty(p, base)

		specs = append(specs, seedSpec{
			AbsPath:   p,
			SizeBytes: fi.Size(),
			MtimeNs:   fi.ModTime().UnixNano(),
			InfoName:  name,
			Tags:      tags,
			Filename:  fname,
		})
		for _, t := range tags {
			tagSet[t] = true
		}
	}

	if len(specs) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	created, err := s.seedFromPathsBatch(specs, tagSet)
	if err != nil {
		s.log.Error("[scanner] batch seed failed: %v", err)
	} else {
		result.Created = created
	}

	result.Duration = time.Since(start)
	s.log.Info("[scanner] scan(roots=%v) completed in %v (created=%d, skipped_existing=%d, orphans_pruned=%d, total_seen=%d)",
		roots, result.Duration, result.Created, result.SkippedExisting, result.OrphansPruned, result.TotalSeen)
	return result, nil
}

type scanState struct {
	id          int64
	path        string
	exists      bool
	fastOK      bool
	needsVerify bool
}

// reconcileRoot is phase 1: fast-check every AssetCacheState under root
// against the filesystem, toggle needs_verify, prune stale states for
// assets with at least one surviving fast-ok location, add/remove the
// missing tag, and delete orphaned hashless seed assets whose lone state
// vanished. Returns every surviving absolute path.
func (s *Scanner) reconcileRoot(root string) ([]string, error) {
	db := s.app.DB()

	bases, err := prefixesForRoot(s.app.Roots(), root)
	if err != nil || len(bases) == 0 {
		return nil, nil
	}

	all, err := database.ListAllCacheStates(db)
	if err != nil {
		return nil, err
	}

	assetCache := map[string]*database.Asset{}
	getAsset := func(id string) (*database.Asset, error) {
		if a, ok := assetCache[id]; ok {
			return a, nil
		}
		a, err := database.GetAssetByID(db, id)
		if err != nil {
			return nil, err
		}
		assetCache[id] = a
		return a, nil
	}

	byAsset := map[string][]scanState{}
	for _, st := range all {
		if !underAnyBase(st.FilePath, bases) {
			continue
		}
		asset, err := getAsset(st.AssetID)
		if err != nil || asset == nil {
			continue
		}

		exists := false
		fastOK := false
		if fi, statErr := os.Stat(st.FilePath); statErr == nil {
			exists = true
			fastOK = fastAssetFileCheck(st.MtimeNs, asset.SizeBytes, fi.ModTime().UnixNano(), fi.Size())
		}
		byAsset[st.AssetID] = append(byAsset[st.AssetID], scanState{
			id: st.ID, path: st.FilePath, exists: exists, fastOK: fastOK, needsVerify: st.NeedsVerify,
		})
	}

	var survivors []string
	var toSetVerify, toClearVerify, staleIDs []int64

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for assetID, states := range byAsset {
		asset := assetCache[assetID]
		anyFastOK := false
		allMissing := true
		for _, st := range states {
			if st.fastOK {
				anyFastOK = true
			}
			if st.exists {
				allMissing = false
			}
			if st.exists {
				if st.fastOK && st.needsVerify {
					toClearVerify = append(toClearVerify, st.id)
				}
				if !st.fastOK && !st.needsVerify {
					toSetVerify = append(toSetVerify, st.id)
				}
			}
		}

		if asset.Hash == "" && allMissing {
			if err := database.DeleteAsset(tx, assetID); err != nil {
				return nil, err
			}
			continue
		}

		if asset.Hash != "" {
			if anyFastOK {
				for _, st := range states {
					if !st.exists {
						staleIDs = append(staleIDs, st.id)
					}
				}
				if err := removeMissingTagForAsset(tx, assetID); err != nil {
					s.log.Warn("[scanner] failed clearing missing tag for %s: %v", assetID, err)
				}
			} else {
				if err := addMissingTagForAsset(tx, assetID); err != nil {
					s.log.Warn("[scanner] failed adding missing tag for %s: %v", assetID, err)
				}
			}
		}

		for _, st := range states {
			if st.exists {
				survivors = append(survivors, st.path)
			}
		}
	}

	for _, id := range staleIDs {
		if _, err := tx.Exec(`DELETE FROM asset_cache_state WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}
	if err := bulkSetNeedsVerify(tx, toSetVerify, true); err != nil {
		return nil, err
	}
	if err := bulkSetNeedsVerify(tx, toClearVerify, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return survivors, nil
}

// pruneOrphans is phase 2: delete cache states outside the configured
// roots, then delete now-orphaned hashless seed assets.
func (s *Scanner) pruneOrphans(roots []string) (int, error) {
	db := s.app.DB()

	var allBases []string
	for _, root := range roots {
		bases, err := prefixesForRoot(s.app.Roots(), root)
		if err != nil {
			continue
		}
		allBases = append(allBases, bases...)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	all, err := database.ListAllCacheStates(tx)
	if err != nil {
		return 0, err
	}
	for _, st := range all {
		if !underAnyBase(st.FilePath, allBases) {
			if err := database.DeleteCacheStateByPath(tx, st.FilePath); err != nil {
				return 0, err
			}
		}
	}

	rows, err := tx.Query(`
		SELECT a.id FROM asset a
		WHERE a.hash IS NULL
		  AND NOT EXISTS (SELECT 1 FROM asset_cache_state s WHERE s.asset_id = a.id)
	`)
	if err != nil {
		return 0, err
	}
	var orphanIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		orphanIDs = append(orphanIDs, id)
	}
	rows.Close()

	for _, id := range orphanIDs {
		if err := database.DeleteAsset(tx, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(orphanIDs), nil
}

// discoverFiles is phase 3: walk the configured roots, skipping symlinks.
func (s *Scanner) discoverFiles(roots []string) []string {
	var out []string
	for _, root := range roots {
		bases, err := prefixesForRoot(s.app.Roots(), root)
		if err != nil {
			continue
		}
		for _, base := range bases {
			out = append(out, walkTree(base)...)
		}
	}
	return out
}

type seedSpec struct {
	AbsPath   string
	SizeBytes int64
	MtimeNs   int64
	InfoName  string
	Tags      []string
	Filename  string
}

// seedFromPathsBatch is phase 4: the winners/losers bulk-insert pattern —
// insert a hashless seed Asset per discovered path, let the file_path
// UNIQUE constraint on asset_cache_state pick a single winner per path,
// drop the losing Asset rows, then create an AssetInfo (and its tags) only
// for the winners.
func (s *Scanner) seedFromPathsBatch(specs []seedSpec, tagSet map[string]bool) (int, error) {
	if len(specs) == 0 {
		return 0, nil
	}

	db := s.app.DB()
	now := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for tag := range tagSet {
		if _, err := database.EnsureTag(tx, tag); err != nil {
			return 0, err
		}
	}

	assetIDFor := map[string]string{} // path -> asset id just inserted
	specFor := map[string]seedSpec{}  // path -> spec

	for _, sp := range specs {
		aid := uuid.NewString()
		if _, err := database.InsertSeedAsset(tx, aid, sp.SizeBytes, now); err != nil {
			return 0, err
		}
		assetIDFor[sp.AbsPath] = aid
		specFor[sp.AbsPath] = sp
	}

	winnerPaths := map[string]bool{}
	for path, aid := range assetIDFor {
		sp := specFor[path]
		_, created, err := database.UpsertCacheState(tx, aid, path, sp.MtimeNs)
		if err != nil {
			return 0, err
		}
		if created {
			winnerPaths[path] = true
		}
	}

	for path, aid := range assetIDFor {
		if !winnerPaths[path] {
			if err := database.DeleteAsset(tx, aid); err != nil {
				return 0, err
			}
		}
	}

	insertedCount := 0
	for path := range winnerPaths {
		aid := assetIDFor[path]
		sp := specFor[path]

		userMeta := "{}"
		if sp.Filename != "" {
			userMeta = fmt.Sprintf(`{"filename":%s}`, jsonQuote(sp.Filename))
		}

		info, created, err := database.CreateAssetInfo(tx, uuid.NewString(), aid, "", sp.InfoName, userMeta, now)
		if err != nil {
			return 0, err
		}
		if !created {
			continue // lost the (asset_id, owner_id, name) race to an earlier row
		}
		insertedCount++

		if err := database.ReplaceTagLinks(tx, info.ID, sp.Tags, now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return insertedCount, nil
}

func fastAssetFileCheck(mtimeDB, sizeDB, mtimeFS, sizeFS int64) bool {
	if mtimeDB != mtimeFS {
		return false
	}
	if sizeDB > 0 {
		return sizeFS == sizeDB
	}
	return true
}

// bulkSetNeedsVerify flips needs_verify for every id in ids, chunked under
// the bind-parameter ceiling the same way the query layer chunks bulk
// IN-clause lookups.
func bulkSetNeedsVerify(tx *sql.Tx, ids []int64, value bool) error {
	if len(ids) == 0 {
		return nil
	}
	v := 0
	if value {
		v = 1
	}
	chunkSize := constants.MaxBindParams - 1
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)+1)
		args = append(args, v)
		for i, id := range chunk {
			placeholders[i] = "?"
			args = append(args, id)
		}
		q := fmt.Sprintf(`UPDATE asset_cache_state SET needs_verify = ? WHERE id IN (%s)`, strings.Join(placeholders, ","))
		if _, err := tx.Exec(q, args...); err != nil {
			return fmt.Errorf("bulk setting needs_verify: %w", err)
		}
	}
	return nil
}

// addMissingTagForAsset attaches the reserved system tag to every
// asset_info referencing assetID, the mirror of removeMissingTagForAsset.
func addMissingTagForAsset(tx *sql.Tx, assetID string) error {
	rows, err := tx.Query(`SELECT id FROM asset_info WHERE asset_id = ?`, assetID)
	if err != nil {
		return err
	}
	var infoIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		infoIDs = append(infoIDs, id)
	}
	rows.Close()

	now := time.Now()
	for _, id := range infoIDs {
		if err := database.AddTagLink(tx, id, constants.MissingTag, constants.TagOriginAutomatic, now); err != nil {
			return err
		}
	}
	return nil
}

func underAnyBase(path string, bases []string) bool {
	for _, b := range bases {
		if isUnderBase(path, b) {
			return true
		}
	}
	return false
}

func isUnderBase(path, base string) bool {
	if base == "" {
		return false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (len(rel) > 0 && rel[0] != '.' && !filepath.IsAbs(rel))
}

func walkTree(base string) []string {
	var out []string
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return out
	}
	filepath.WalkDir(base, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil
		}
		out = append(out, abs)
		return nil
	})
	return out
}

// prefixesForRoot resolves a root name ("models", "input", "output") into
// its configured base path(s). "models" may have several, one per category.
func prefixesForRoot(roots pathutil.Roots, root string) ([]string, error) {
	switch root {
	case constants.RootInput:
		if roots.Input == "" {
			return nil, nil
		}
		return []string{roots.Input}, nil
	case constants.RootOutput:
		if roots.Output == "" {
			return nil, nil
		}
		return []string{roots.Output}, nil
	case constants.RootModels:
		var out []string
		for _, bases := range roots.Categories {
			out = append(out, bases...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown root %q", root)
	}
}

func jsonQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			out = append(out, '\\', byte(r))
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return string(out)
}
