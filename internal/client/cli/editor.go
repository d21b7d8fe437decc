package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"inkpad/internal/common"
	"inkpad/internal/document"
	"inkpad/internal/session"
)

// Open loads the document at 1-based index n of the filtered view into a new
// editing session, closing any session already open.
func (a *App) Open(ctx context.Context, n int) error {
	d, ok := a.docByIndex(n)
	if !ok {
		fmt.Println("No such document; run 'list' first")
		return common.ErrNotFound
	}

	a.closeEditing()

	surface := &session.BufferSurface{}
	ctrl := session.NewController(a.client, surface, a.logger, session.Options{
		QuietPeriod: a.config.QuietPeriod,
		CallTimeout: a.config.CallTimeout,
	})

	if err := ctrl.Load(ctx, d.ID, a.currentUserID()); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("Document no longer exists")
		} else {
			log.Println(err.Error())
		}
		ctrl.Close()
		return err
	}

	a.mu.Lock()
	a.editing = ctrl
	a.editingID = d.ID
	a.surface = surface
	a.mu.Unlock()

	a.showEditing()
	return nil
}

// New creates an empty document, refreshes the collection and opens it.
func (a *App) New(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}

	created, err := a.client.Create(ctx, document.Document{Title: title})
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if err := a.cache.Put(ctx, created); err != nil {
		log.Printf("cache update failed: %s", err.Error())
	}
	if err := a.refreshDocuments(ctx); err != nil {
		log.Println(err.Error())
	}

	fmt.Printf("Created %q\n", created.Title)
	return nil
}

// EditTitle reads a new title for the open document; the save is debounced.
func (a *App) EditTitle(ctx context.Context) error {
	ctrl := a.currentEditing()
	if ctrl == nil {
		fmt.Println("No open document; use 'open <n>'")
		return nil
	}

	title, err := getSimpleText(a.reader, "Enter new title", os.Stdout)
	if err != nil {
		return err
	}
	ctrl.EditTitle(title)
	return nil
}

// EditContent reads a replacement body for the open document; the save is
// debounced.
func (a *App) EditContent(ctx context.Context) error {
	ctrl := a.currentEditing()
	if ctrl == nil {
		fmt.Println("No open document; use 'open <n>'")
		return nil
	}

	content, err := GetMultiline(a.reader, "Enter content", os.Stdout)
	if err != nil {
		return err
	}

	a.mu.Lock()
	surface := a.surface
	a.mu.Unlock()
	surface.SetSerializedContent(content)
	ctrl.SyncFromSurface()
	return nil
}

// ToggleStar flips the star on the open document.
func (a *App) ToggleStar(ctx context.Context) error {
	ctrl := a.currentEditing()
	if ctrl == nil {
		fmt.Println("No open document; use 'open <n>'")
		return nil
	}
	ctrl.ToggleStar()
	return nil
}

// Delete removes the document at 1-based index n of the filtered view.
func (a *App) Delete(ctx context.Context, n int) error {
	d, ok := a.docByIndex(n)
	if !ok {
		fmt.Println("No such document; run 'list' first")
		return common.ErrNotFound
	}

	a.mu.Lock()
	editingDeleted := a.editingID == d.ID
	a.mu.Unlock()
	if editingDeleted {
		a.closeEditing()
	}

	if err := a.client.Delete(ctx, d.ID); err != nil {
		log.Println(err.Error())
		return err
	}
	if err := a.cache.Remove(ctx, d.ID); err != nil {
		log.Printf("cache update failed: %s", err.Error())
	}
	if err := a.refreshDocuments(ctx); err != nil {
		log.Println(err.Error())
	}

	fmt.Println("Deleted.")
	return nil
}

// CloseDoc ends the current editing session.
func (a *App) CloseDoc(ctx context.Context) error {
	a.closeEditing()
	fmt.Println("Closed.")
	return nil
}

// Status renders the open session: title, star, save state and body.
func (a *App) Status(ctx context.Context) error {
	a.showEditing()
	return nil
}

func (a *App) currentEditing() *session.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editing
}

func (a *App) closeEditing() {
	a.mu.Lock()
	ctrl := a.editing
	a.editing = nil
	a.editingID = ""
	a.surface = nil
	a.mu.Unlock()

	if ctrl != nil {
		ctrl.Close()
	}
}

func (a *App) showEditing() {
	ctrl := a.currentEditing()
	if ctrl == nil {
		fmt.Println("No open document")
		return
	}

	snap := ctrl.Snapshot()
	switch snap.State {
	case session.StateLoading:
		fmt.Println("Loading...")
	case session.StateNotFound:
		fmt.Println("Document not found")
	case session.StateReady:
		star := ""
		if snap.Starred {
			star = " *"
		}
		saving := ""
		if snap.SaveStatus == session.SaveSaving || snap.PendingSave {
			saving = " (saving...)"
		}
		fmt.Printf("== %s%s%s ==\n", snap.LocalTitle, star, saving)
		fmt.Println(snap.LocalContent)
	}
}
