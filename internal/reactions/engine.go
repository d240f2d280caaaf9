// Package reactions computes reaction-map transitions for posts.
//
// Reactions are mutually exclusive per identity: an identity holds at most
// one reaction kind on a post at any time. Clicking the held kind again
// removes it; clicking a different kind moves the identity there.
package reactions

import "campusnet/internal/models"

// Toggle returns the reaction map that results from the identity toggling
// the given kind on the post. The input map is never modified; the result is
// sent to the data service as a full replacement of the post's reaction
// column.
func Toggle(current models.ReactionMap, identityID string, kind models.ReactionKind) models.ReactionMap {
	next := current.Clone()

	held := false
	for _, id := range next[kind] {
		if id == identityID {
			held = true
			break
		}
	}

	// Remove the identity from every kind unconditionally. This enforces
	// exclusivity even if the stored map is already inconsistent.
	for k, ids := range next {
		kept := ids[:0]
		for _, id := range ids {
			if id != identityID {
				kept = append(kept, id)
			}
		}
		next[k] = kept
	}

	if !held {
		next[kind] = append(next[kind], identityID)
	}

	return next
}
