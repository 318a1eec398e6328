package memstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"driza/errs"
	"driza/store"
)

// Store keeps the whole document tree in memory. It exists for development
// mode and for tests; semantics mirror the production adapter: nested slash
// paths, nil update fields delete, empty nodes do not exist, and each
// subscription sees snapshots in write order.
type Store struct {
	mu   sync.Mutex
	root map[string]any
	subs map[*subscriber]bool
}

type subscriber struct {
	path string
	ch   chan store.Event
}

func New() *Store {
	return &Store{
		root: make(map[string]any),
		subs: make(map[*subscriber]bool),
	}
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, errs.Invalid("path", "empty")
	}
	return strings.Split(path, "/"), nil
}

func (s *Store) Get(_ context.Context, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := lookup(s.root, segs)
	if !ok {
		return nil, errs.ErrNotFound
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Store) Set(_ context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	node, err := toTree(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(segs, node)
	s.notifyLocked(path)
	return nil
}

func (s *Store) Update(_ context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range fields {
		sub, err := splitPath(key)
		if err != nil {
			return err
		}
		target := append(append([]string{}, segs...), sub...)
		if v == nil {
			s.writeLocked(target, nil)
			continue
		}
		node, err := toTree(v)
		if err != nil {
			return err
		}
		s.writeLocked(target, node)
	}
	s.notifyLocked(path)
	return nil
}

func (s *Store) Remove(_ context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(segs, nil)
	s.notifyLocked(path)
	return nil
}

func (s *Store) Subscribe(path string, fn func(store.Event)) (func(), error) {
	if _, err := splitPath(path); err != nil {
		return nil, err
	}
	sub := &subscriber{path: path, ch: make(chan store.Event, 64)}

	go func() {
		for ev := range sub.ch {
			fn(ev)
		}
	}()

	s.mu.Lock()
	s.subs[sub] = true
	sub.enqueue(store.Event{Path: path, Value: s.snapshotLocked(path)})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			close(sub.ch)
			s.mu.Unlock()
		})
	}, nil
}

// toTree round-trips a value through JSON so the tree only ever holds plain
// maps, slices and primitives.
func toTree(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return prune(node), nil
}

// prune drops empty objects so that, like the real store, a node with no
// children simply does not exist.
func prune(node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	for k, v := range m {
		if p := prune(v); p == nil {
			delete(m, k)
		} else {
			m[k] = p
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func lookup(root map[string]any, segs []string) (any, bool) {
	var node any = root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if m, ok := node.(map[string]any); ok && len(m) == 0 {
		return nil, false
	}
	return node, true
}

// writeLocked sets node at segs (nil deletes), creating intermediate maps on
// the way down and pruning empty ones on the way back up.
func (s *Store) writeLocked(segs []string, node any) {
	writeTree(s.root, segs, node)
}

func writeTree(m map[string]any, segs []string, node any) {
	key := segs[0]
	if len(segs) == 1 {
		if node == nil {
			delete(m, key)
		} else {
			m[key] = node
		}
		return
	}
	child, ok := m[key].(map[string]any)
	if !ok {
		if node == nil {
			return
		}
		child = make(map[string]any)
		m[key] = child
	}
	writeTree(child, segs[1:], node)
	if len(child) == 0 {
		delete(m, key)
	}
}

func (s *Store) snapshotLocked(path string) json.RawMessage {
	segs, err := splitPath(path)
	if err != nil {
		return nil
	}
	node, ok := lookup(s.root, segs)
	if !ok {
		return nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil
	}
	return raw
}

// affects reports whether a write at changed alters the snapshot at
// subscribed: either path may sit below the other.
func affects(changed, subscribed string) bool {
	return changed == subscribed ||
		strings.HasPrefix(changed, subscribed+"/") ||
		strings.HasPrefix(subscribed, changed+"/")
}

func (s *Store) notifyLocked(changed string) {
	for sub := range s.subs {
		if affects(changed, sub.path) {
			sub.enqueue(store.Event{Path: sub.path, Value: s.snapshotLocked(sub.path)})
		}
	}
}

// enqueue never blocks a writer: when a subscriber lags, the oldest queued
// snapshot is dropped, since only the latest snapshot matters.
func (sub *subscriber) enqueue(ev store.Event) {
	for {
		select {
		case sub.ch <- ev:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}
