package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"shopsync/internal/model"
)

// DefaultStateKey is the namespaced key the persisted state lives under.
const DefaultStateKey = "shopsync:state"

// Observer is called with the new state after every transition.
type Observer func(model.PersistedState)

// Store is the single owner of the persisted shopper state.
// Reads always reflect the latest dispatched value in this process; durable
// writes are last-writer-wins across processes.
type Store struct {
	mu    sync.Mutex
	state model.PersistedState

	backend Backend
	key     string
	logger  *slog.Logger

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64
}

// Open loads the state stored under key, or starts from the initial state when
// nothing compatible is stored.
func Open(ctx context.Context, backend Backend, key string, logger *slog.Logger) (*Store, error) {
	if key == "" {
		key = DefaultStateKey
	}

	s := &Store{
		state:     model.InitialState(),
		backend:   backend,
		key:       key,
		logger:    logger,
		observers: make(map[uint64]Observer),
	}

	data, ok, err := backend.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading state %s: %w", key, err)
	}
	if !ok {
		return s, nil
	}

	state, compatible, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if !compatible {
		logger.Warn("discarding incompatible state record", slog.String("key", key))
	}
	s.state = state

	logger.Debug("state loaded",
		slog.String("key", key),
		slog.Bool("signed_in", state.IsSignedIn()),
		slog.Bool("has_checkout", state.CheckoutID != nil),
		slog.Int("line_items", len(state.CheckoutLineItems)),
	)
	return s, nil
}

// Purge deletes the persisted record and returns to the initial state
// without a transition. Observers are notified with the initial state.
func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("deleting state record %q: %w", s.key, err)
	}
	s.state = model.InitialState()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.logger.Info("state purged", slog.String("key", s.key))
	s.notify(snapshot)
	return nil
}

// State returns a copy of the current state.
func (s *Store) State() model.PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies action, persists the result and notifies observers.
//
// An unrecognized action type panics with an error wrapping
// model.ErrUnknownAction.
// A failed durable write is logged; the in-memory state still advances.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	next, err := Reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		panic(err)
	}
	s.state = next
	snapshot := next.Clone()
	s.persist(next)
	s.mu.Unlock()

	s.logger.Debug("state transition", slog.String("action", string(action.Type)))
	s.notify(snapshot)
}

// persist writes state to the backend. Called with s.mu held so writes land in dispatch order.
func (s *Store) persist(state model.PersistedState) {
	data, err := encodeRecord(state)
	if err != nil {
		s.logger.Error("encoding state failed", slog.String("error", err.Error()))
		return
	}
	if err := s.backend.Save(context.Background(), s.key, data); err != nil {
		s.logger.Error("persisting state failed",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
	}
}

// Subscribe registers fn to run after every transition.
// The returned function removes the observer.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// notify runs observers in registration order, outside of any store lock, so
// observers may dispatch further actions.
func (s *Store) notify(state model.PersistedState) {
	s.obsMu.Lock()
	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}
