package media

import "strings"

// Reconcile returns the paths present in oldPaths but absent from newPaths.
// Both lists are treated as sets: order and duplicates are ignored and empty
// entries count as absent. The result keeps first-seen order from oldPaths.
func Reconcile(oldPaths, newPaths []string) []string {
	keep := make(map[string]struct{}, len(newPaths))
	for _, p := range newPaths {
		if p = strings.TrimSpace(p); p != "" {
			keep[p] = struct{}{}
		}
	}

	var removed []string
	seen := make(map[string]struct{}, len(oldPaths))
	for _, p := range oldPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := keep[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		removed = append(removed, p)
	}
	return removed
}

// normalize trims, drops empty entries and removes duplicates.
func normalize(paths []string) []string {
	return Reconcile(paths, nil)
}

func contains(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}
	return false
}

func without(paths []string, target string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}
