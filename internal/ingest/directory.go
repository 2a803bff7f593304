// Package ingest discovers input documents on disk, either once per
// directory or continuously through a watcher.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docintel/internal/acquire"
)

type FileResult struct {
	Path        string
	Document    acquire.Document
	HashHex     string
	Duplicate   bool
	DuplicateOf string
	Err         string
}

type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Succeeded  uint32
	Duplicates uint32
	Failed     uint32
}

// CollectDirectory walks root, filters by exts (or the default formats), skips
// hidden entries if requested and reads every matching file. Files whose
// content was already seen under another path are flagged as duplicates.
func CollectDirectory(root string, exts []string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	set := extSet(exts)

	var results []FileResult
	var stats DirStats
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, set) {
			return nil
		}
		stats.Matched++

		data, err := os.ReadFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		res := FileResult{
			Path:     path,
			Document: acquire.Document{Name: filepath.Base(path), Data: data},
			HashHex:  hash,
		}
		if first, ok := seen[hash]; ok {
			res.Duplicate = true
			res.DuplicateOf = first
			stats.Duplicates++
		} else {
			seen[hash] = path
		}
		results = append(results, res)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Documents returns the readable documents, optionally without duplicates.
func Documents(results []FileResult, skipDuplicates bool) []acquire.Document {
	var out []acquire.Document
	for _, r := range results {
		if r.Err != "" || (skipDuplicates && r.Duplicate) {
			continue
		}
		out = append(out, r.Document)
	}
	return out
}
