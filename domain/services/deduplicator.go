package services

// Deduplicate collapses labels that share a normalized form. The first
// occurrence wins and keeps its original spelling; output order follows the
// first occurrence of each normalized form in the input.
func Deduplicate(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))

	for _, label := range labels {
		normalized := Normalize(label)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, label)
	}

	return unique
}

// ExcludeExisting drops labels whose normalized form is already present.
// existing is keyed by normalized label.
func ExcludeExisting(labels []string, existing map[string]struct{}) []string {
	fresh := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := existing[Normalize(label)]; ok {
			continue
		}
		fresh = append(fresh, label)
	}
	return fresh
}
