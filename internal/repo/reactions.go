package repo

import (
	"context"

	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// Reactions maps post id (as a string key) to emoji to the user keys that
// picked it.
type Reactions map[string]map[string][]string

// ReactionsRepo stores per-post emoji reactions.
type ReactionsRepo struct {
	*Collection[Reactions]
}

// NewReactions builds the reactions repository.
func NewReactions(store *docstore.Store) *ReactionsRepo {
	return &ReactionsRepo{
		Collection: newCollection(store, "reactions", func() Reactions { return Reactions{} }, nil),
	}
}

// Toggle records userKey picking emoji on postID. A user holds at most one
// reaction per post: any previous pick is removed first, and picking the same
// emoji again clears it. The resulting emoji for the user is returned, empty
// when cleared.
func (r *ReactionsRepo) Toggle(ctx context.Context, postID, emoji, userKey string) (string, error) {
	result := ""
	_, err := r.Update(ctx, func(reactions *Reactions) (bool, error) {
		postMap := (*reactions)[postID]
		if postMap == nil {
			postMap = map[string][]string{}
		}

		already := false
		for e, users := range postMap {
			kept := users[:0]
			for _, u := range users {
				if u == userKey {
					if e == emoji {
						already = true
					}
					continue
				}
				kept = append(kept, u)
			}
			if len(kept) == 0 {
				delete(postMap, e)
			} else {
				postMap[e] = kept
			}
		}

		if !already {
			postMap[emoji] = append(postMap[emoji], userKey)
			result = emoji
		}

		if len(postMap) == 0 {
			delete(*reactions, postID)
		} else {
			(*reactions)[postID] = postMap
		}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
