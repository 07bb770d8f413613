package repo

import (
	"context"

	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// Post is one news item on the community feed.
type Post struct {
	ID         int      `json:"id"`
	Date       string   `json:"date,omitempty"`
	Title      string   `json:"title,omitempty"`
	Category   string   `json:"category,omitempty"`
	Source     string   `json:"source,omitempty"`
	Text       string   `json:"text,omitempty"`
	Image      string   `json:"image,omitempty"`
	Gallery    []string `json:"gallery,omitempty"`
	IsPublic   bool     `json:"is_public"`
	IsArchived bool     `json:"is_archived"`
}

// PostsRepo stores the news feed as one list document.
type PostsRepo struct {
	*Collection[[]Post]
}

// NewPosts builds the news-feed repository.
func NewPosts(store *docstore.Store) *PostsRepo {
	return &PostsRepo{
		Collection: newCollection(store, "posts", func() []Post { return []Post{} }, func(posts *[]Post) {
			if *posts == nil {
				*posts = []Post{}
			}
		}),
	}
}

// Append assigns the next free id to post and persists it, returning the id.
func (r *PostsRepo) Append(ctx context.Context, post Post) (int, error) {
	id := 0
	_, err := r.Update(ctx, func(posts *[]Post) (bool, error) {
		for _, p := range *posts {
			if p.ID > id {
				id = p.ID
			}
		}
		id++
		post.ID = id
		*posts = append(*posts, post)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Replace swaps the post with the same id and reports whether it existed.
func (r *PostsRepo) Replace(ctx context.Context, post Post) (bool, error) {
	replaced := false
	_, err := r.Update(ctx, func(posts *[]Post) (bool, error) {
		for i := range *posts {
			if (*posts)[i].ID == post.ID {
				(*posts)[i] = post
				replaced = true
				return true, nil
			}
		}
		return false, nil
	})
	return replaced, err
}

// Delete removes the post with the given id and reports whether it existed.
func (r *PostsRepo) Delete(ctx context.Context, id int) (bool, error) {
	deleted := false
	_, err := r.Update(ctx, func(posts *[]Post) (bool, error) {
		kept := (*posts)[:0]
		for _, p := range *posts {
			if p.ID == id {
				deleted = true
				continue
			}
			kept = append(kept, p)
		}
		*posts = kept
		return deleted, nil
	})
	return deleted, err
}
