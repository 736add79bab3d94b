package pathutil

import (
	"path/filepath"
	"testing"

	"assetcatalog/internal/constants"
)

func testRoots(t *testing.T) Roots {
	t.Helper()
	dir := t.TempDir()
	return Roots{
		Input:  filepath.Join(dir, "input"),
		Output: filepath.Join(dir, "output"),
		Categories: map[string][]string{
			"loras":       {filepath.Join(dir, "models", "loras")},
			"checkpoints": {filepath.Join(dir, "models", "checkpoints")},
		},
	}
}

func TestClassifyInputOutput(t *testing.T) {
	r := testRoots(t)

	root, cat, err := r.Classify(filepath.Join(r.Input, "a.png"))
	if err != nil || root != constants.RootInput || cat != "" {
		t.Fatalf("expected (input, \"\"), got (%s,%s,%v)", root, cat, err)
	}

	root, cat, err = r.Classify(filepath.Join(r.Output, "b.png"))
	if err != nil || root != constants.RootOutput || cat != "" {
		t.Fatalf("expected (output, \"\"), got (%s,%s,%v)", root, cat, err)
	}
}

func TestClassifyModelsCategory(t *testing.T) {
	r := testRoots(t)

	root, cat, err := r.Classify(filepath.Join(r.Categories["loras"][0], "x.safetensors"))
	if err != nil || root != constants.RootModels || cat != "loras" {
		t.Fatalf("expected (models, loras), got (%s,%s,%v)", root, cat, err)
	}
}

func TestClassifyOutsideAllRoots(t *testing.T) {
	r := testRoots(t)
	if _, _, err := r.Classify("/etc/passwd"); err == nil {
		t.Error("expected a ClassifyError for a path outside all roots")
	}
}

func TestNameAndTagsSymmetry(t *testing.T) {
	r := testRoots(t)
	path := filepath.Join(r.Categories["checkpoints"][0], "model.ckpt")

	root, cat, err := r.Classify(path)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	name, tags := NameAndTags(path, root, cat)

	if name != "model.ckpt" {
		t.Errorf("expected name model.ckpt, got %s", name)
	}
	if len(tags) != 2 || tags[0] != "models" || tags[1] != "checkpoints" {
		t.Errorf("expected tags [models checkpoints], got %v", tags)
	}
}

func TestEnsureWithinBaseRejectsTraversal(t *testing.T) {
	r := testRoots(t)
	if err := EnsureWithinBase(filepath.Join(r.Input, "..", "escape.txt"), r.Input); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestEnsureWithinBaseAcceptsNested(t *testing.T) {
	r := testRoots(t)
	if err := EnsureWithinBase(filepath.Join(r.Input, "sub", "file.txt"), r.Input); err != nil {
		t.Errorf("expected nested path to be accepted, got %v", err)
	}
}

func TestRelativeFilename(t *testing.T) {
	r := testRoots(t)
	rel, err := RelativeFilename(filepath.Join(r.Input, "sub", "file.txt"), r.Input)
	if err != nil {
		t.Fatalf("RelativeFilename: %v", err)
	}
	if rel != "sub/file.txt" {
		t.Errorf("expected sub/file.txt, got %s", rel)
	}
}
