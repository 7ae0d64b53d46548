// Package session holds the in-memory source of truth for "is this browser
// signed in, and as whom". State is keyed by the client id cookie and lives
// in process memory; the single durable crumb (the signed-in hint) is
// persisted through a SnapshotRepository so it survives restarts the way a
// browser's local storage survives reloads.
//
// The hint is advisory only. It may be true while the backend session has
// already expired; the authoritative check is always a successful /auth/me
// call. Rendering decisions trust the hint, access decisions never do.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwellhq/inkwell/internal/api"
	"github.com/inkwellhq/inkwell/internal/apperror"
)

// Eviction of idle in-memory state. A client that hasn't navigated in a
// while costs nothing to forget: its durable hint stays in Redis and the
// state is rehydrated on the next request.
const (
	stateIdleTTL       = time.Hour
	stateSweepInterval = 10 * time.Minute
)

// Gateway is the slice of the API client the store depends on, kept narrow
// so tests can stand in a mock.
type Gateway interface {
	Register(ctx context.Context, creds *api.Credentials, email, password string) (*api.Message, error)
	Login(ctx context.Context, creds *api.Credentials, email, password string) (*api.TokenResponse, error)
	Logout(ctx context.Context, creds *api.Credentials) (*api.Message, error)
	CurrentUser(ctx context.Context, creds *api.Credentials) (*api.User, error)
}

// State is one browser client's auth state as the UI sees it.
type State struct {
	// AccessToken is held in memory only, never persisted. The durable copy
	// is the backend-owned HTTP-only cookie this process cannot outlive.
	AccessToken string

	// User is the profile from the last successful /auth/me call, nil until
	// one succeeds. Non-nil only while IsAuthenticated.
	User *api.User

	// IsAuthenticated is the persisted UI hint. True does not guarantee a
	// valid session.
	IsAuthenticated bool

	// IsLoading and Error are transient UI flags, never persisted.
	IsLoading bool
	Error     string

	lastSeen time.Time
}

// Store is the process-wide registry of client states. It is constructed
// once at startup and injected wherever auth state is read or mutated.
type Store struct {
	gw        Gateway
	snapshots SnapshotRepository

	mu     sync.Mutex
	states map[string]*State
}

// New creates a Store and starts the background sweep of idle state.
func New(gw Gateway, snapshots SnapshotRepository) *Store {
	s := &Store{
		gw:        gw,
		snapshots: snapshots,
		states:    make(map[string]*State),
	}

	go func() {
		for {
			time.Sleep(stateSweepInterval)
			s.mu.Lock()
			now := time.Now()
			for cid, st := range s.states {
				if now.Sub(st.lastSeen) > stateIdleTTL {
					delete(s.states, cid)
				}
			}
			s.mu.Unlock()
		}
	}()

	return s
}

// State returns a copy of the client's current state, rehydrating the
// signed-in hint from the snapshot repository when the client isn't in
// memory (fresh load after a restart, or after idle eviction).
func (s *Store) State(ctx context.Context, clientID string) State {
	s.mu.Lock()
	st, ok := s.states[clientID]
	s.mu.Unlock()
	if ok {
		return s.copyState(clientID)
	}

	// Not in memory: the hint is the only thing that survives, everything
	// else is re-derived from the server.
	var authenticated bool
	snap, err := s.snapshots.Load(ctx, clientID)
	if err != nil {
		slog.Warn("loading client snapshot failed, treating as signed out",
			slog.String("client_id", clientID),
			slog.Any("error", err),
		)
	} else if snap != nil {
		authenticated = snap.IsAuthenticated
	}

	s.mu.Lock()
	if _, ok := s.states[clientID]; !ok {
		s.states[clientID] = &State{IsAuthenticated: authenticated, lastSeen: time.Now()}
	}
	st = s.states[clientID]
	out := *st
	s.mu.Unlock()
	return out
}

// Login authenticates the client against the backend. On success the
// signed-in hint flips true and the profile is fetched immediately; a
// failure of that follow-up fetch is not rolled back -- the client stays
// authenticated with a nil profile until a later fetch succeeds. On failure
// the error is recorded in state and returned so the caller can surface it.
func (s *Store) Login(ctx context.Context, clientID string, creds *api.Credentials, email, password string) error {
	s.mutate(ctx, clientID, func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	tok, err := s.gw.Login(ctx, creds, email, password)
	if err != nil {
		s.mutate(ctx, clientID, func(st *State) {
			st.Error = apperror.UpstreamDetail(err, "Login failed")
			st.IsLoading = false
			st.IsAuthenticated = false
		})
		return err
	}

	s.mutate(ctx, clientID, func(st *State) {
		st.AccessToken = tok.AccessToken
		st.IsAuthenticated = true
		st.IsLoading = false
	})

	// Derive the profile right away, causally after login's response. This
	// deliberately bypasses FetchUser: its failure path demotes the client,
	// and a missed profile fetch immediately after a successful login must
	// not undo the login.
	user, err := s.gw.CurrentUser(ctx, creds)
	if err != nil {
		slog.Debug("profile fetch after login failed",
			slog.String("client_id", clientID),
			slog.Any("error", err),
		)
		return nil
	}
	s.mutate(ctx, clientID, func(st *State) {
		st.User = user
	})
	return nil
}

// Register creates an account. It does not authenticate the client; the
// backend wants the email verified first.
func (s *Store) Register(ctx context.Context, clientID string, creds *api.Credentials, email, password string) error {
	s.mutate(ctx, clientID, func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	if _, err := s.gw.Register(ctx, creds, email, password); err != nil {
		s.mutate(ctx, clientID, func(st *State) {
			st.Error = apperror.UpstreamDetail(err, "Registration failed")
			st.IsLoading = false
		})
		return err
	}

	s.mutate(ctx, clientID, func(st *State) {
		st.IsLoading = false
	})
	return nil
}

// Logout destroys the backend session and clears local state. The network
// call's failure is absorbed: whatever the backend thinks, this client must
// never be left looking signed in after a logout.
func (s *Store) Logout(ctx context.Context, clientID string, creds *api.Credentials) {
	s.mutate(ctx, clientID, func(st *State) {
		st.IsLoading = true
	})

	if _, err := s.gw.Logout(ctx, creds); err != nil {
		slog.Warn("logout call failed, clearing local state anyway",
			slog.String("client_id", clientID),
			slog.Any("error", err),
		)
	}

	s.mutate(ctx, clientID, func(st *State) {
		st.AccessToken = ""
		st.User = nil
		st.IsAuthenticated = false
		st.IsLoading = false
	})
}

// FetchUser performs the authoritative session check: a /auth/me call with
// the client's credentials. Success stores the profile. Any failure demotes
// the client on the spot -- profile and hint are cleared together, and the
// error propagates so the caller can redirect.
func (s *Store) FetchUser(ctx context.Context, clientID string, creds *api.Credentials) (*api.User, error) {
	user, err := s.gw.CurrentUser(ctx, creds)
	if err != nil {
		s.mutate(ctx, clientID, func(st *State) {
			st.User = nil
			st.IsAuthenticated = false
		})
		return nil, err
	}

	s.mutate(ctx, clientID, func(st *State) {
		st.User = user
	})
	return user, nil
}

// SetToken force-sets the in-memory token and derives the signed-in hint
// from its presence. The guard calls SetToken(ctx, cid, "") to demote a
// client whose authoritative check failed.
func (s *Store) SetToken(ctx context.Context, clientID, token string) {
	s.mutate(ctx, clientID, func(st *State) {
		st.AccessToken = token
		st.IsAuthenticated = token != ""
		if token == "" {
			st.User = nil
		}
	})
}

// ClearError nulls the error field. Called after the error has been shown
// once so it doesn't redisplay on the next render.
func (s *Store) ClearError(ctx context.Context, clientID string) {
	s.mutate(ctx, clientID, func(st *State) {
		st.Error = ""
	})
}

// mutate applies fn to the client's state under the lock, then persists the
// durable slice. Persisting only ever writes the fields Snapshot names; a
// persist failure downgrades to a log line because the hint is advisory.
func (s *Store) mutate(ctx context.Context, clientID string, fn func(*State)) {
	s.mu.Lock()
	st, ok := s.states[clientID]
	if !ok {
		st = &State{}
		s.states[clientID] = st
	}
	fn(st)
	st.lastSeen = time.Now()
	snap := Snapshot{Version: snapshotVersion, IsAuthenticated: st.IsAuthenticated}
	s.mu.Unlock()

	if err := s.snapshots.Save(ctx, clientID, snap); err != nil {
		slog.Warn("persisting client snapshot failed",
			slog.String("client_id", clientID),
			slog.Any("error", err),
		)
	}
}

// copyState returns a copy of the client's state under the lock.
func (s *Store) copyState(clientID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[clientID]
	if !ok {
		return State{}
	}
	st.lastSeen = time.Now()
	return *st
}
