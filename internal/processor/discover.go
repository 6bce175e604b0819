package processor

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/eloc-raven/internal/detection"
	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/recording"
)

// DeviceDir is the folder an ELOC recorder writes its sessions to
const DeviceDir = "eloc"

// Candidate is a folder that may be processed
type Candidate struct {
	Path     string
	Name     string
	WAVFiles int
	CSVFiles int  // detection CSVs matching the prefix
	IsRoot   bool // root itself, no subfolders found
}

// HasDetections reports whether the folder has detection CSVs
func (c Candidate) HasDetections() bool {
	return c.CSVFiles > 0
}

// DiscoverFolders lists processing candidates below root. Sessions in
// root/eloc are preferred. Otherwise each subfolder of root is a candidate,
// and a root without subfolders is a candidate itself. Hidden folders and
// folders named outputDir are ignored.
func DiscoverFolders(root, outputDir, csvPrefix string) ([]Candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, discoverError(err, root)
	}
	if !info.IsDir() {
		return nil, errors.Newf("not a directory: %s", root).
			Component("processor").
			Category(errors.CategoryValidation).
			Context("root", root).
			Build()
	}

	devicePath := filepath.Join(root, DeviceDir)
	if st, err := os.Stat(devicePath); err == nil && st.IsDir() {
		dirs, err := subfolders(devicePath, outputDir)
		if err != nil {
			return nil, err
		}
		GetLogger().Debug("using device folder layout",
			logger.String("path", devicePath),
			logger.Int("folders", len(dirs)))
		return candidates(dirs, csvPrefix, false)
	}

	dirs, err := subfolders(root, outputDir)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return candidates([]string{root}, csvPrefix, true)
	}
	return candidates(dirs, csvPrefix, false)
}

// SelectWithDetections returns the paths of candidates that have detection CSVs
func SelectWithDetections(cands []Candidate) []string {
	var paths []string
	for _, c := range cands {
		if c.HasDetections() {
			paths = append(paths, c.Path)
		}
	}
	return paths
}

func subfolders(dir, outputDir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, discoverError(err, dir)
	}

	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || name == outputDir {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, name))
	}
	slices.Sort(dirs)
	return dirs, nil
}

func candidates(dirs []string, csvPrefix string, isRoot bool) ([]Candidate, error) {
	out := make([]Candidate, 0, len(dirs))
	for _, dir := range dirs {
		c, err := countFiles(dir, csvPrefix)
		if err != nil {
			return nil, err
		}
		c.IsRoot = isRoot
		out = append(out, c)
	}
	return out, nil
}

func countFiles(dir, csvPrefix string) (Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Candidate{}, discoverError(err, dir)
	}

	c := Candidate{Path: dir, Name: filepath.Base(dir)}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if recording.IsWAV(e.Name()) {
			c.WAVFiles++
		}
		names = append(names, e.Name())
	}
	c.CSVFiles = len(detection.Select(names, csvPrefix))
	return c, nil
}

func discoverError(err error, path string) error {
	return errors.New(err).
		Component("processor").
		Category(errors.CategoryFileIO).
		Context("operation", "discover_folders").
		Context("path", path).
		Build()
}
