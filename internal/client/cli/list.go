package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inkpad/internal/document"
	"inkpad/internal/listview"
	"inkpad/internal/store"
)

// refreshDocuments fetches the collection from the server and snapshots it
// into the local cache. When the server is unreachable the cached copy is
// used instead, so the list views keep working offline.
func (a *App) refreshDocuments(ctx context.Context) error {
	docs, err := a.client.List(ctx, store.Filter{})
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			a.setMode(ModeOffline)
			cached, cacheErr := a.cache.List(ctx)
			if cacheErr != nil {
				return err
			}
			a.mu.Lock()
			a.docs = cached
			a.mu.Unlock()
			return nil
		}
		return err
	}

	if err := a.cache.ReplaceAll(ctx, docs); err != nil {
		log.Printf("cache refresh failed: %s", err.Error())
	}

	a.mu.Lock()
	a.docs = docs
	a.mu.Unlock()
	return nil
}

func (a *App) views() listview.Views {
	a.mu.Lock()
	docs := a.docs
	term := a.searchTerm
	a.mu.Unlock()
	return listview.DeriveViews(docs, term)
}

func printDocs(docs []document.Document) {
	if len(docs) == 0 {
		fmt.Println("(no documents)")
		return
	}
	for i, d := range docs {
		star := " "
		if d.IsStarred {
			star = "*"
		}
		title := d.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%2d %s %-40s %s\n", i+1, star, title, d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// List refreshes and renders the filtered collection.
func (a *App) List(ctx context.Context) error {
	if err := a.refreshDocuments(ctx); err != nil {
		log.Println(err.Error())
		return err
	}
	printDocs(a.views().Filtered)
	return nil
}

// Search sets the title filter and renders the matching documents. An empty
// term clears the filter.
func (a *App) Search(ctx context.Context, term string) error {
	a.mu.Lock()
	a.searchTerm = term
	a.mu.Unlock()
	printDocs(a.views().Filtered)
	return nil
}

// Recent renders the most recently updated matching documents.
func (a *App) Recent(ctx context.Context) error {
	printDocs(a.views().Recent)
	return nil
}

// Starred renders the starred subset of the matching documents.
func (a *App) Starred(ctx context.Context) error {
	printDocs(a.views().Starred)
	return nil
}

// docByIndex resolves a 1-based index in the current filtered view.
func (a *App) docByIndex(n int) (document.Document, bool) {
	filtered := a.views().Filtered
	if n < 1 || n > len(filtered) {
		return document.Document{}, false
	}
	return filtered[n-1], true
}
