// Package pathutil classifies absolute filesystem paths into the catalog's
// three roots (models, input, output), with models further subdivided by
// category, and guards against path traversal when placing uploaded
// content.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"assetcatalog/internal/constants"
)

// Roots holds the resolved absolute base paths the classifier checks paths
// against. Categories maps a category name to one or more base paths under
// the models root.
type Roots struct {
	Input      string
	Output     string
	Categories map[string][]string // category -> base paths
}

// ClassifyError indicates a path did not fall under any configured root.
type ClassifyError struct {
	Path string
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("path %q is not under any configured root", e.Path)
}

// Classify finds which root a path falls under, and — for the models root
// — which category. Returns an error if path is outside every configured
// base.
func (r Roots) Classify(path string) (root string, category string, err error) {
	clean := filepath.Clean(path)

	if r.Input != "" && isWithinBase(clean, r.Input) {
		return constants.RootInput, "", nil
	}
	if r.Output != "" && isWithinBase(clean, r.Output) {
		return constants.RootOutput, "", nil
	}
	for cat, bases := range r.Categories {
		for _, base := range bases {
			if base != "" && isWithinBase(clean, base) {
				return constants.RootModels, cat, nil
			}
		}
	}
	return "", "", &ClassifyError{Path: path}
}

// ClassifyWithBase is Classify plus the specific configured base path that
// matched, which may differ from BaseFor's canonical choice when a
// category has more than one configured base.
func (r Roots) ClassifyWithBase(path string) (root, category, base string, err error) {
	clean := filepath.Clean(path)

	if r.Input != "" && isWithinBase(clean, r.Input) {
		return constants.RootInput, "", r.Input, nil
	}
	if r.Output != "" && isWithinBase(clean, r.Output) {
		return constants.RootOutput, "", r.Output, nil
	}
	for cat, bases := range r.Categories {
		for _, b := range bases {
			if b != "" && isWithinBase(clean, b) {
				return constants.RootModels, cat, b, nil
			}
		}
	}
	return "", "", "", &ClassifyError{Path: path}
}

// BaseFor returns the configured base path for a (root, category) pair, or
// an error if that combination is not configured. For models, the first
// configured base path for the category is used as the canonical
// destination directory for new uploads.
func (r Roots) BaseFor(root, category string) (string, error) {
	switch root {
	case constants.RootInput:
		if r.Input == "" {
			return "", fmt.Errorf("input root is not configured")
		}
		return r.Input, nil
	case constants.RootOutput:
		if r.Output == "" {
			return "", fmt.Errorf("output root is not configured")
		}
		return r.Output, nil
	case constants.RootModels:
		bases, ok := r.Categories[category]
		if !ok || len(bases) == 0 {
			return "", fmt.Errorf("model category %q is not configured", category)
		}
		return bases[0], nil
	default:
		return "", fmt.Errorf("unknown root %q", root)
	}
}

// All returns the three root names in canonical enumeration order, used
// wherever a caller may request "all roots" (e.g. a scanner pass with no
// explicit subset).
func (r Roots) All() []string {
	return []string{constants.RootModels, constants.RootInput, constants.RootOutput}
}

// NameAndTags derives an AssetInfo's display name and initial tag list from
// an absolute path already known to classify successfully. The tag list
// begins with the root and, for models, is followed by the category — the
// exact inverse of the upload root/category tag contract.
func NameAndTags(path string, root, category string) (name string, tags []string) {
	name = filepath.Base(filepath.Clean(path))
	if root == constants.RootModels && category != "" {
		return name, []string{root, category}
	}
	return name, []string{root}
}

// RelativeFilename returns path relative to its root's base, using forward
// slashes regardless of OS.
func RelativeFilename(path, base string) (string, error) {
	rel, err := filepath.Rel(base, filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// EnsureWithinBase normalizes both candidate and base and fails if the
// candidate's cleaned form does not sit under base. Used to refuse path
// traversal before any file is created or moved onto disk.
func EnsureWithinBase(candidate, base string) error {
	cleanBase := filepath.Clean(base)
	cleanCandidate := filepath.Clean(candidate)
	if !isWithinBase(cleanCandidate, cleanBase) {
		return fmt.Errorf("path %q escapes base %q", candidate, base)
	}
	return nil
}

func isWithinBase(cleanPath, cleanBase string) bool {
	if cleanPath == cleanBase {
		return true
	}
	sep := string(filepath.Separator)
	prefix := cleanBase
	if !strings.HasSuffix(prefix, sep) {
		prefix += sep
	}
	return strings.HasPrefix(cleanPath, prefix)
}
