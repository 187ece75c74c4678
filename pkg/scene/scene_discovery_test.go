package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"dragon_gold", "Dragon Gold"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestParseDocumentMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name: "complete_metadata.yaml",
			content: `# Scene: Spheres
# Variant: Night
# Description: Three spheres under a dark sky
# Group: Sphere Variants

name: spheres
`,
			expected: SceneInfo{
				ID:          "document:complete_metadata",
				Name:        "Spheres",
				DisplayName: "Spheres - Night",
				Description: "Three spheres under a dark sky",
				Group:       "Sphere Variants",
				Type:        "document",
				Variant:     "Night",
			},
		},
		{
			name: "partial_metadata.yml",
			content: `# Scene: Slab
# Description: A metal slab

primitives: []
`,
			expected: SceneInfo{
				ID:          "document:partial_metadata",
				Name:        "Slab",
				DisplayName: "Slab",
				Description: "A metal slab",
				Group:       "Scene Documents",
				Type:        "document",
			},
		},
		{
			name:    "no_metadata.yaml",
			content: `primitives: []`,
			expected: SceneInfo{
				ID:          "document:no_metadata",
				Name:        "No Metadata", // From filename
				DisplayName: "No Metadata",
				Group:       "Scene Documents",
				Type:        "document",
			},
		},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.name, tc.content)

			result, err := ParseDocumentMetadata(path)
			if err != nil {
				t.Fatalf("ParseDocumentMetadata() error: %v", err)
			}

			tc.expected.FilePath = path
			if diff := cmp.Diff(tc.expected, result); diff != "" {
				t.Errorf("ParseDocumentMetadata() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDocumentMetadata_InvalidFile(t *testing.T) {
	// Missing files fall back to values derived from the name
	info, err := ParseDocumentMetadata("nonexistent.yaml")
	if err != nil {
		t.Errorf("ParseDocumentMetadata() should handle missing files gracefully: %v", err)
	}
	if info.Name != "Nonexistent" {
		t.Errorf("Expected fallback name Nonexistent, got %q", info.Name)
	}
}

func TestParseDocumentMetadata_StopsAtFirstNonComment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mixed.yaml", `# Scene: Test Scene
name: test
# Variant: Ignored
`)
	info, err := ParseDocumentMetadata(path)
	if err != nil {
		t.Fatalf("ParseDocumentMetadata() error: %v", err)
	}
	if info.Variant != "" {
		t.Errorf("Expected no variant, got %q", info.Variant)
	}
	if info.DisplayName != "Test Scene" {
		t.Errorf("Expected display name Test Scene, got %q", info.DisplayName)
	}
}

func TestListDocumentScenes_MissingDirectory(t *testing.T) {
	scenes, err := ListDocumentScenes(filepath.Join(t.TempDir(), "absent"), discardLogger())
	if err != nil {
		t.Errorf("ListDocumentScenes() error: %v", err)
	}
	if scenes == nil || len(scenes) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", scenes)
	}
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "# Scene: Beta\n# Group: Extras\n")
	writeFile(t, dir, "a.yml", "# Scene: Alpha\n# Group: Extras\n")
	writeFile(t, dir, "notes.txt", "# Scene: Ignored\n")

	response, err := ListAllScenes(dir, discardLogger())
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}
	if len(response.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(response.Groups))
	}

	builtIn := response.Groups[0]
	if builtIn.Name != "Built-in Scenes" {
		t.Errorf("Expected built-in group first, got %q", builtIn.Name)
	}
	var ids []string
	for _, s := range builtIn.Scenes {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff(PresetIDs(), ids); diff != "" {
		t.Errorf("Built-in scene ids mismatch (-want +got):\n%s", diff)
	}

	extras := response.Groups[1]
	if extras.Name != "Extras" {
		t.Errorf("Expected Extras group, got %q", extras.Name)
	}
	var names []string
	for _, s := range extras.Scenes {
		names = append(names, s.DisplayName)
		if s.Type != "document" || !strings.HasPrefix(s.ID, "document:") {
			t.Errorf("Unexpected document scene %+v", s)
		}
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, names); diff != "" {
		t.Errorf("Document scenes mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "single.yaml", `name: Single
primitives:
  - type: sphere
    center: [0, 0, 0]
    radius: 1
`)

	testCases := []struct {
		id    string
		name  string
		count int
	}{
		{"default", "Default Scene", 2},
		{"document:single", "Single", 1},
		{path, "Single", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			s, err := Load(tc.id, dir, nil, discardLogger())
			if err != nil {
				t.Fatalf("Load(%q) error: %v", tc.id, err)
			}
			if s.Name() != tc.name {
				t.Errorf("Expected name %q, got %q", tc.name, s.Name())
			}
			if s.GetPrimitiveCount() != tc.count {
				t.Errorf("Expected %d primitives, got %d", tc.count, s.GetPrimitiveCount())
			}
		})
	}

	for _, id := range []string{"missing", "document:missing", "document:../single"} {
		if _, err := Load(id, dir, nil, discardLogger()); err == nil {
			t.Errorf("Load(%q) expected an error", id)
		}
	}
}
