package models

import "github.com/lib/pq"

func contains(set pq.StringArray, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// AddToSet ajoute id s'il est absent. Le slice d'origine n'est jamais modifié.
func AddToSet(set pq.StringArray, id string) (pq.StringArray, bool) {
	if contains(set, id) {
		return set, false
	}
	out := make(pq.StringArray, 0, len(set)+1)
	out = append(out, set...)
	return append(out, id), true
}

// RemoveFromSet retire toutes les occurrences de id
func RemoveFromSet(set pq.StringArray, id string) (pq.StringArray, bool) {
	out := make(pq.StringArray, 0, len(set))
	removed := false
	for _, v := range set {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		return set, false
	}
	return out, true
}

func cloneSet(set pq.StringArray) pq.StringArray {
	if set == nil {
		return pq.StringArray{}
	}
	out := make(pq.StringArray, len(set))
	copy(out, set)
	return out
}
