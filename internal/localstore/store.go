package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"urban-bites/internal/domain/models"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"

	"github.com/gofrs/flock"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const (
	snapshotFile = "urban-bites-db.json"
	lockFile     = "urban-bites-db.lock"
)

// snapshot is the on-disk shape of the store: three record sets keyed by id,
// matching the orders / orderItems / syncQueue schema.
type snapshot struct {
	Orders     map[string]models.Order      `json:"orders"`
	OrderItems map[string]models.OrderItem  `json:"orderItems"`
	SyncQueue  map[string]models.SyncRecord `json:"syncQueue"`
}

// Store is the durable source of truth for orders, shared by every display
// process working from the same data directory. The snapshot file is the
// authoritative copy; the in-memory maps are a cache of it. Reads reload the
// file when another process has rewritten it, and every mutation is a
// read-merge-write cycle under a cross-process file lock, so the order
// service and a kitchen board running as separate processes converge through
// the directory alone.
type Store struct {
	dir   string
	mylog logger.Logger

	initGroup singleflight.Group
	ready     *atomic.Bool
	flk       *flock.Flock

	mu           sync.RWMutex
	orders       map[string]models.Order
	items        map[string]models.OrderItem
	itemsByOrder map[string][]string
	syncQueue    map[string]models.SyncRecord
	lastMod      time.Time
	lastSize     int64
}

// Open prepares a store rooted at dir. No I/O happens until the first
// operation; initialization is lazy and memoized.
func Open(dir string, mylog logger.Logger) *Store {
	return &Store{
		dir:          dir,
		mylog:        mylog.With("component", "localstore"),
		ready:        atomic.NewBool(false),
		orders:       make(map[string]models.Order),
		items:        make(map[string]models.OrderItem),
		itemsByOrder: make(map[string][]string),
		syncQueue:    make(map[string]models.SyncRecord),
	}
}

// ensureInit loads or creates the snapshot exactly once. Concurrent callers
// wait on the same flight instead of racing duplicate setups.
func (s *Store) ensureInit(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err, _ := s.initGroup.Do("init", func() (any, error) {
		if s.ready.Load() {
			return nil, nil
		}
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
		}
		s.ready.Store(true)
		s.mylog.Action("store_initialized").With("dir", s.dir).Info("Local store ready")
		return nil, nil
	})
	return err
}

func (s *Store) load() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	s.flk = flock.New(filepath.Join(s.dir, lockFile))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

// reloadLocked reads the snapshot file and merges it into the maps. Callers
// must hold mu.
func (s *Store) reloadLocked() error {
	path := filepath.Join(s.dir, snapshotFile)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("corrupt snapshot: %v", err)
	}

	s.mergeLocked(snap)
	s.lastMod = info.ModTime()
	s.lastSize = info.Size()
	return nil
}

// mergeLocked folds a disk snapshot into the maps. Orders take the newer
// update, with ties going to the disk copy because every writer persists a
// read-merge-write of the latest snapshot; items are immutable once written;
// queue records keep the highest retry count. A sync record another process
// re-persists after we delivered it can reappear here, which only costs a
// duplicate replay the mirror's upserts absorb.
func (s *Store) mergeLocked(snap snapshot) {
	for id, o := range snap.Orders {
		cur, ok := s.orders[id]
		if !ok || !o.UpdatedAt.Before(cur.UpdatedAt) {
			s.orders[id] = o
		}
	}
	for id, it := range snap.OrderItems {
		if _, ok := s.items[id]; !ok {
			s.items[id] = it
			s.itemsByOrder[it.OrderID] = append(s.itemsByOrder[it.OrderID], id)
		}
	}
	for id, rec := range snap.SyncQueue {
		cur, ok := s.syncQueue[id]
		if !ok || rec.RetryCount > cur.RetryCount {
			s.syncQueue[id] = rec
		}
	}
}

// refresh makes the cache current before a read: if the snapshot file changed
// since it was last seen, another process wrote it and it is re-read. This is
// what bounds a display's staleness to its poll interval.
func (s *Store) refresh(ctx context.Context) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}

	info, err := os.Stat(filepath.Join(s.dir, snapshotFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	s.mu.RLock()
	changed := !info.ModTime().Equal(s.lastMod) || info.Size() != s.lastSize
	s.mu.RUnlock()
	if !changed {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}
	return nil
}

// lockForWrite takes the cross-process file lock that serializes writers.
// The in-process mutex is taken after it, always in that order.
func (s *Store) lockForWrite(ctx context.Context) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("%w: lock: %v", xerrors.ErrStorageUnavailable, err)
	}
	return nil
}

// persistLocked rewrites the snapshot via a temp file and rename so a crash
// mid-write never leaves a torn file. Callers must hold mu and the file lock.
func (s *Store) persistLocked() error {
	snap := snapshot{
		Orders:     s.orders,
		OrderItems: s.items,
		SyncQueue:  s.syncQueue,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, snapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		s.lastMod = info.ModTime()
		s.lastSize = info.Size()
	}
	return nil
}

// PutOrder upserts the order, last write wins by id.
func (s *Store) PutOrder(ctx context.Context, order models.Order) error {
	if err := s.lockForWrite(ctx); err != nil {
		return err
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	prev, existed := s.orders[order.ID]
	s.orders[order.ID] = order
	if err := s.persistLocked(); err != nil {
		if existed {
			s.orders[order.ID] = prev
		} else {
			delete(s.orders, order.ID)
		}
		return fmt.Errorf("%w: %v", xerrors.ErrPersistenceFailed, err)
	}
	return nil
}

// PutItems upserts a batch of order items in one snapshot write.
func (s *Store) PutItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return s.ensureInit(ctx)
	}
	if err := s.lockForWrite(ctx); err != nil {
		return err
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	for _, it := range items {
		if _, exists := s.items[it.ID]; !exists {
			s.itemsByOrder[it.OrderID] = append(s.itemsByOrder[it.OrderID], it.ID)
		}
		s.items[it.ID] = it
	}
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrPersistenceFailed, err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	if err := s.refresh(ctx); err != nil {
		return models.Order{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, xerrors.ErrOrderNotFound
	}
	return order, nil
}

// GetAllOrders returns fresh copies with no guaranteed ordering; callers sort.
func (s *Store) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetItemsByOrder returns the items owned by orderID in insertion order.
// An empty result is valid: the order may still be mid-write, callers
// re-fetch on the next tick.
func (s *Store) GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.itemsByOrder[orderID]
	out := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// CountOrdersOnDay counts orders created on the same UTC day as t. Used for
// the display-only daily order number.
func (s *Store) CountOrdersOnDay(ctx context.Context, t time.Time) (int, error) {
	if err := s.refresh(ctx); err != nil {
		return 0, err
	}

	day := t.UTC().Format("20060102")
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, o := range s.orders {
		if o.CreatedAt.UTC().Format("20060102") == day {
			n++
		}
	}
	return n, nil
}

// EnqueueSync stores a failed remote write for later retry.
func (s *Store) EnqueueSync(ctx context.Context, rec models.SyncRecord) error {
	if err := s.lockForWrite(ctx); err != nil {
		return err
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	s.syncQueue[rec.ID] = rec
	if err := s.persistLocked(); err != nil {
		delete(s.syncQueue, rec.ID)
		return fmt.Errorf("%w: %v", xerrors.ErrPersistenceFailed, err)
	}
	return nil
}

// PendingSync returns queued records oldest first.
func (s *Store) PendingSync(ctx context.Context) ([]models.SyncRecord, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SyncRecord, 0, len(s.syncQueue))
	for _, rec := range s.syncQueue {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteSync(ctx context.Context, id string) error {
	if err := s.lockForWrite(ctx); err != nil {
		return err
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	delete(s.syncQueue, id)
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrPersistenceFailed, err)
	}
	return nil
}

func (s *Store) BumpSyncRetry(ctx context.Context, id string) (int, error) {
	if err := s.lockForWrite(ctx); err != nil {
		return 0, err
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return 0, fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}

	rec, ok := s.syncQueue[id]
	if !ok {
		return 0, nil
	}
	rec.RetryCount++
	s.syncQueue[id] = rec
	if err := s.persistLocked(); err != nil {
		return rec.RetryCount, fmt.Errorf("%w: %v", xerrors.ErrPersistenceFailed, err)
	}
	return rec.RetryCount, nil
}

// Close flushes the snapshot if the store ever initialized.
func (s *Store) Close() error {
	if !s.ready.Load() {
		return nil
	}
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("%w: lock: %v", xerrors.ErrStorageUnavailable, err)
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStorageUnavailable, err)
	}
	return s.persistLocked()
}
