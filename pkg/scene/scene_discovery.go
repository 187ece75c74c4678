package scene

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

const (
	builtinGroup = "Built-in Scenes"
	documentTag  = "document:"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "document"
	FilePath    string `json:"filePath"`    // Path to the YAML file (document type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// ListDocumentScenes scans dir for YAML scene documents. A missing directory yields no scenes.
func ListDocumentScenes(dir string, logger *slog.Logger) ([]SceneInfo, error) {
	logger = core.LoggerOrDefault(logger)
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrap(err, "scanning scenes directory")
		}
		files = append(files, matches...)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseDocumentMetadata(filePath)
		if err != nil {
			logger.Warn("failed to parse scene metadata", "path", filePath, "error", err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseDocumentMetadata extracts metadata from the header comments of a scene document:
//
//	# Scene: Cornell Box
//	# Variant: Empty Room
//	# Description: ...
//	# Group: ...
func ParseDocumentMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          documentTag + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Documents",
		Type:        "document",
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		// Unreadable files keep their fallback values
		return sceneInfo, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}

		content, ok := strings.CutPrefix(line, "# ")
		if !ok {
			continue
		}
		switch key, value, _ := strings.Cut(content, ":"); key {
		case "Scene":
			sceneInfo.Name = strings.TrimSpace(value)
		case "Variant":
			sceneInfo.Variant = strings.TrimSpace(value)
		case "Description":
			sceneInfo.Description = strings.TrimSpace(value)
		case "Group":
			sceneInfo.Group = strings.TrimSpace(value)
		}
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns the built-in presets and the documents in dir, grouped by category
func ListAllScenes(dir string, logger *slog.Logger) (ScenesResponse, error) {
	var response ScenesResponse

	var allScenes []SceneInfo
	for _, id := range PresetIDs() {
		p := presets[id]
		allScenes = append(allScenes, SceneInfo{
			ID:          p.ID,
			Name:        p.Name,
			DisplayName: p.Name,
			Description: p.Description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}

	documents, err := ListDocumentScenes(dir, logger)
	if err != nil {
		return response, errors.Wrap(err, "listing scene documents")
	}
	allScenes = append(allScenes, documents...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtIn, exists := groupMap[builtinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: builtIn})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// Load builds a scene by id. Ids are preset names, "document:<name>" for a
// document in dir, or a path to a YAML file.
func Load(id, dir string, resolver material.TextureResolver, logger *slog.Logger) (*Scene, error) {
	if _, ok := LookupPreset(id); ok {
		return NewPreset(id, resolver, logger)
	}
	if name, ok := strings.CutPrefix(id, documentTag); ok {
		if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
			return nil, errors.Errorf("invalid scene document name %q", name)
		}
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadDocumentFile(path, resolver, logger)
			}
		}
		return nil, errors.Errorf("scene document %q not found in %s", name, dir)
	}
	if ext := filepath.Ext(id); ext == ".yaml" || ext == ".yml" {
		return LoadDocumentFile(id, resolver, logger)
	}
	return nil, errors.Errorf("unknown scene %q", id)
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
