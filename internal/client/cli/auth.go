package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"inkpad/internal/auth"
	"inkpad/internal/common"
	"inkpad/internal/store"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and attempts to
// create a new account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.Register(ctx, userName, string(password)); err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Println("Success! You can now log in.")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// While the exchange is running the auth watcher reports a loading session,
// so list commands wait instead of rendering against a stale identity. On
// success the watcher resolves to the token's identity and the app switches
// to online mode; subscribers react to the transition (watchAuthChanges
// fetches the collection). On failure the watcher resolves to signed-out.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.watcher.Reset()

	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		a.watcher.Resolve(nil)
		if errors.Is(err, store.ErrUnavailable) {
			log.Printf("Server unavailable")
			a.setMode(ModeDisabled)
		} else {
			log.Printf("Login unsuccessful: %s", err.Error())
		}
		return err
	}

	identity, err := auth.IdentityFromToken(a.accessToken(), userName)
	if err != nil {
		a.watcher.Resolve(nil)
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.watcher.Resolve(identity)
	a.setMode(ModeOnline)
	log.Printf("Login successful")
	return nil
}

// watchAuthChanges subscribes to auth session transitions and runs the
// initial collection fetch whenever the session resolves from signed-out to
// a new identity. Re-resolving the same identity does not refetch. The
// returned function unsubscribes.
func (a *App) watchAuthChanges(ctx context.Context) func() {
	var mu sync.Mutex
	var prev string

	return a.watcher.OnChange(func(s auth.State) {
		if s.IsLoading {
			return
		}
		if s.User == nil {
			mu.Lock()
			prev = ""
			mu.Unlock()
			return
		}

		mu.Lock()
		same := prev == s.User.ID
		prev = s.User.ID
		mu.Unlock()
		if same {
			return
		}

		go func() {
			if err := a.refreshDocuments(ctx); err != nil {
				log.Printf("Initial fetch failed: %s", err.Error())
			}
		}()
	})
}

// Logout closes the open editing session, drops the local cache contents
// and resolves the watcher to signed-out.
func (a *App) Logout(ctx context.Context) error {
	a.closeEditing()

	if err := a.cache.ReplaceAll(ctx, nil); err != nil {
		return err
	}

	a.mu.Lock()
	a.docs = nil
	a.searchTerm = ""
	a.mu.Unlock()

	a.watcher.Resolve(nil)
	return nil
}

func (a *App) accessToken() string {
	if hc, ok := a.client.(*store.HTTPClient); ok {
		return hc.AccessToken()
	}
	return ""
}
