package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// AssetRoots are searched in order by ResolveAssetPath. The first entry is the
// configured assets root; an extracted package directory is appended after it.
var AssetRoots = []string{"assets"}

// TextureExtensions lists the image formats the registry can decode, in lookup order.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tif", ".tiff", ".gif", ".tex"}

// ResolveAssetPath returns the first existing match for relPath below AssetRoots.
// Absolute paths and paths that already exist are returned unchanged.
func ResolveAssetPath(relPath string) string {
	if relPath == "" {
		return ""
	}
	if filepath.IsAbs(relPath) {
		return relPath
	}
	if _, err := os.Stat(relPath); err == nil {
		return relPath
	}

	for _, root := range AssetRoots {
		p := filepath.Join(root, relPath)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if len(AssetRoots) > 0 {
		return filepath.Join(AssetRoots[0], relPath) // Fallback to the primary root even if missing
	}
	return relPath
}

// FindTextureFile looks a texture up by name with or without extension.
// Returns "" when nothing matches.
func FindTextureFile(name string) string {
	if name == "" {
		return ""
	}

	cleanName := strings.TrimPrefix(filepath.ToSlash(name), "textures/")
	if ext := filepath.Ext(cleanName); isTextureExt(ext) {
		if p := ResolveAssetPath(name); fileExists(p) {
			return p
		}
		cleanName = strings.TrimSuffix(cleanName, ext)
	}

	searchDirs := make([]string, 0, len(AssetRoots)*2)
	for _, root := range AssetRoots {
		searchDirs = append(searchDirs, filepath.Join(root, "textures"), root)
	}

	for _, dir := range searchDirs {
		for _, ext := range TextureExtensions {
			p := filepath.Join(dir, cleanName+ext)
			if fileExists(p) {
				return p
			}
		}
	}
	return ""
}

func isTextureExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range TextureExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
