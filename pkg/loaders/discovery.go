package loaders

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SceneInfo describes a scene that can be loaded by SceneLoader
type SceneInfo struct {
	ID          string `json:"id"`          // Source passed to SceneLoader.Load
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "yaml"
}

// Scene groups
const (
	BuiltinGroup = "Built-in Scenes"
	FileGroup    = "Scene Files"
)

// ListScenes returns the built-in scenes followed by the YAML scenes found
// in dir, each list sorted by name. A missing dir yields only the built-ins.
func ListScenes(dir string, logger *slog.Logger) ([]SceneInfo, error) {
	scenes := make([]SceneInfo, 0, len(builtins))
	for _, name := range BuiltinNames() {
		scenes = append(scenes, SceneInfo{
			ID:          BuiltinPrefix + name,
			Name:        titleCase(name),
			Description: builtins[name].description,
			Group:       BuiltinGroup,
			Type:        "builtin",
		})
	}

	if dir == "" {
		return scenes, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return scenes, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	var found []SceneInfo
	for _, path := range files {
		info, err := ParseSceneMetadata(path)
		if err != nil {
			// Skip unreadable files, keep the rest
			if logger != nil {
				logger.Warn("failed to parse scene metadata", "path", path, "error", err)
			}
			continue
		}
		found = append(found, info)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})

	return append(scenes, found...), nil
}

// ParseSceneMetadata extracts metadata from the header comments of a scene
// file. Recognized lines are "# Scene:", "# Description:" and "# Group:".
func ParseSceneMetadata(path string) (SceneInfo, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := SceneInfo{
		ID:    path,
		Name:  titleCase(base),
		Group: FileGroup,
		Type:  "yaml",
	}

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Stop at the first non-comment line
		content, ok := strings.CutPrefix(line, "#")
		if !ok {
			break
		}
		content = strings.TrimSpace(content)

		if v, ok := strings.CutPrefix(content, "Scene:"); ok {
			info.Name = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Description:"); ok {
			info.Description = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Group:"); ok {
			info.Group = strings.TrimSpace(v)
		}
	}

	return info, scanner.Err()
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
