// Package verify implements the push-time verification hook: an
// independent, defensive cross-check between the identifiers embedded in
// the local checkout and the authoritative counter state on the sync
// branch. It only blocks or allows a push; it never fixes anything.
package verify

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/steveyegge/cub/internal/config"
)

// LocalUsage is what the checkout believes about its own identifier use:
// the highest specification and standalone numbers referenced in
// task-bearing files, and where each number was seen.
type LocalUsage struct {
	MaxSpec        int
	MaxStandalone  int
	SpecRefs       map[int][]string
	StandaloneRefs map[int][]string
}

// scannable file types; everything else is skipped as binary or irrelevant
var textExtensions = map[string]bool{
	".md":    true,
	".txt":   true,
	".yaml":  true,
	".yml":   true,
	".json":  true,
	".jsonl": true,
}

// Scan walks the checkout's task-bearing directories (.cub plus any
// configured task dirs) and extracts every specification and standalone
// identifier for the project. Missing directories are skipped, not errors.
func Scan(root string, cfg *config.Config) (*LocalUsage, error) {
	usage := &LocalUsage{
		MaxSpec:        -1,
		MaxStandalone:  -1,
		SpecRefs:       make(map[int][]string),
		StandaloneRefs: make(map[int][]string),
	}

	project := regexp.QuoteMeta(cfg.Project)
	specPattern := regexp.MustCompile(`\b` + project + `-(\d{3,})`)
	standalonePattern := regexp.MustCompile(`\b` + project + `-s(\d{3,})`)

	dirs := append([]string{config.DirName}, cfg.TaskDirs...)
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := scanDir(filepath.Join(root, dir), root, specPattern, standalonePattern, usage); err != nil {
			return nil, err
		}
	}
	return usage, nil
}

func scanDir(dir, root string, specPattern, standalonePattern *regexp.Regexp, usage *LocalUsage) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the checkout
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		record(standalonePattern.FindAllSubmatch(data, -1), rel, usage.StandaloneRefs, &usage.MaxStandalone)

		// Standalone IDs also match the spec pattern from the digit run
		// onward only when the "s" is absent, so the two never overlap.
		record(specPattern.FindAllSubmatch(data, -1), rel, usage.SpecRefs, &usage.MaxSpec)
		return nil
	})
}

func record(matches [][][]byte, file string, refs map[int][]string, max *int) {
	for _, m := range matches {
		n, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		if !containsString(refs[n], file) {
			refs[n] = append(refs[n], file)
		}
		if n > *max {
			*max = n
		}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// refsAtOrAbove returns the numbers in refs that are >= floor, ascending.
func refsAtOrAbove(refs map[int][]string, floor int) []int {
	var nums []int
	for n := range refs {
		if n >= floor {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}
