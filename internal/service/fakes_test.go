package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

// In-memory collaborators mirroring the repository guarantees: every
// ledger mutation is atomic per (episode, slot type) key and Transition
// serializes on a per-reservation lock.  Mutex-guarded so concurrency
// tests exercise real interleavings.

type slotKey struct {
	episodeID uint64
	slotType  model.SlotType
}

type fakeLedger struct {
	mu         sync.Mutex
	counts     map[slotKey]model.SlotCounts
	confirmErr map[slotKey]error // consumed on first ConfirmBooking hit
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		counts:     make(map[slotKey]model.SlotCounts),
		confirmErr: make(map[slotKey]error),
	}
}

func (f *fakeLedger) seed(episodeID uint64, t model.SlotType, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[slotKey{episodeID, t}] = model.SlotCounts{Total: total, Available: total}
}

func (f *fakeLedger) get(episodeID uint64, t model.SlotType) model.SlotCounts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[slotKey{episodeID, t}]
}

func (f *fakeLedger) GetForEpisode(_ context.Context, episodeID uint64) (model.Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := model.Inventory{EpisodeID: episodeID}
	found := false
	for _, t := range model.SlotTypes() {
		if c, ok := f.counts[slotKey{episodeID, t}]; ok {
			inv.SetCounts(t, c)
			found = true
		}
	}
	if !found {
		return model.Inventory{}, repository.ErrEpisodeNotFound
	}
	return inv, nil
}

func (f *fakeLedger) GetForEpisodes(_ context.Context, episodeIDs []uint64) (map[uint64]model.Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64]model.Inventory)
	for _, id := range episodeIDs {
		inv := model.Inventory{EpisodeID: id}
		found := false
		for _, t := range model.SlotTypes() {
			if c, ok := f.counts[slotKey{id, t}]; ok {
				inv.SetCounts(t, c)
				found = true
			}
		}
		if found {
			out[id] = inv
		}
	}
	return out, nil
}

func (f *fakeLedger) TryReserve(_ context.Context, episodeID uint64, t model.SlotType, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := slotKey{episodeID, t}
	c, ok := f.counts[k]
	if !ok {
		return repository.ErrEpisodeNotFound
	}
	if c.Available < qty {
		return &repository.InsufficientInventoryError{EpisodeID: episodeID, SlotType: t, Requested: qty}
	}
	c.Available -= qty
	c.Reserved += qty
	f.counts[k] = c
	return nil
}

func (f *fakeLedger) ReleaseReservation(_ context.Context, episodeID uint64, t model.SlotType, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := slotKey{episodeID, t}
	c := f.counts[k]
	if c.Reserved < qty {
		return &repository.InvariantViolationError{EpisodeID: episodeID, SlotType: t, Op: "release", Quantity: qty}
	}
	c.Reserved -= qty
	c.Available += qty
	f.counts[k] = c
	return nil
}

func (f *fakeLedger) ConfirmBooking(_ context.Context, episodeID uint64, t model.SlotType, qty int) error {
	f.mu.Lock()
	k := slotKey{episodeID, t}
	if err, ok := f.confirmErr[k]; ok {
		delete(f.confirmErr, k)
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	c := f.counts[k]
	if c.Reserved < qty {
		return &repository.InvariantViolationError{EpisodeID: episodeID, SlotType: t, Op: "confirm", Quantity: qty}
	}
	c.Reserved -= qty
	c.Booked += qty
	f.counts[k] = c
	return nil
}

type fakeReservationStore struct {
	mu    sync.Mutex
	seq   uint64
	byID  map[uint64]*model.Reservation
	items map[uint64][]model.ReservationItem
	locks map[uint64]*sync.Mutex
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{
		byID:  make(map[uint64]*model.Reservation),
		items: make(map[uint64][]model.ReservationItem),
		locks: make(map[uint64]*sync.Mutex),
	}
}

func (f *fakeReservationStore) CreateWithItems(_ context.Context, res *model.Reservation, items []model.ReservationItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	res.ID = f.seq
	stored := *res
	f.byID[res.ID] = &stored
	copied := make([]model.ReservationItem, len(items))
	copy(copied, items)
	for i := range copied {
		f.seq++
		copied[i].ID = f.seq
		copied[i].ReservationID = res.ID
		items[i].ID = copied[i].ID
		items[i].ReservationID = res.ID
	}
	f.items[res.ID] = copied
	f.locks[res.ID] = &sync.Mutex{}
	return nil
}

func (f *fakeReservationStore) GetWithItems(_ context.Context, id uint64) (*model.Reservation, []model.ReservationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.byID[id]
	if !ok {
		return nil, nil, repository.ErrReservationNotFound
	}
	out := *res
	items := make([]model.ReservationItem, len(f.items[id]))
	copy(items, f.items[id])
	return &out, items, nil
}

func (f *fakeReservationStore) ListByOrg(_ context.Context, orgID uint64, limit int) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, res := range f.byID {
		if res.OrgID == orgID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReservationStore) ListExpiredIDs(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for id, res := range f.byID {
		if res.Status == model.ReservationHeld && res.ExpiredAt(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeReservationStore) Transition(_ context.Context, id uint64, fn func(res *model.Reservation, items []model.ReservationItem) error) error {
	f.mu.Lock()
	lock, ok := f.locks[id]
	f.mu.Unlock()
	if !ok {
		return repository.ErrReservationNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	f.mu.Lock()
	res := *f.byID[id]
	items := make([]model.ReservationItem, len(f.items[id]))
	copy(items, f.items[id])
	f.mu.Unlock()

	if err := fn(&res, items); err != nil {
		return err
	}

	f.mu.Lock()
	res.UpdatedAt = time.Now().UTC()
	stored := res
	f.byID[id] = &stored
	f.mu.Unlock()
	return nil
}

type fakeOrderStore struct {
	mu            sync.Mutex
	seq           uint64
	byReservation map[uint64]*model.Order
	items         map[uint64][]model.OrderItem // keyed by order id
	markErr       error                        // consumed on first MarkItemBooked
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byReservation: make(map[uint64]*model.Order),
		items:         make(map[uint64][]model.OrderItem),
	}
}

func (f *fakeOrderStore) GetByReservation(_ context.Context, reservationID uint64) (*model.Order, []model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byReservation[reservationID]
	if !ok {
		return nil, nil, repository.ErrOrderNotFound
	}
	out := *o
	items := make([]model.OrderItem, len(f.items[o.ID]))
	copy(items, f.items[o.ID])
	return &out, items, nil
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, o *model.Order, items []model.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	o.ID = f.seq
	o.CreatedAt = time.Now().UTC()
	stored := *o
	f.byReservation[o.ReservationID] = &stored
	copied := make([]model.OrderItem, len(items))
	copy(copied, items)
	for i := range copied {
		f.seq++
		copied[i].ID = f.seq
		copied[i].OrderID = o.ID
		items[i].ID = copied[i].ID
		items[i].OrderID = o.ID
	}
	f.items[o.ID] = copied
	return nil
}

func (f *fakeOrderStore) MarkItemBooked(_ context.Context, orderItemID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		err := f.markErr
		f.markErr = nil
		return err
	}
	for orderID, items := range f.items {
		for i := range items {
			if items[i].ID == orderItemID {
				items[i].SlotsBooked = true
				f.items[orderID] = items
				return nil
			}
		}
	}
	return repository.ErrOrderNotFound
}

func (f *fakeOrderStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byReservation)
}

type fakeCampaignStore struct {
	mu   sync.Mutex
	byID map[uint64]*model.Campaign
}

func newFakeCampaignStore(campaigns ...*model.Campaign) *fakeCampaignStore {
	f := &fakeCampaignStore{byID: make(map[uint64]*model.Campaign)}
	for _, c := range campaigns {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCampaignStore) GetByID(_ context.Context, id uint64) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrCampaignNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeCampaignStore) UpdateStatus(_ context.Context, id uint64, status model.CampaignStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repository.ErrCampaignNotFound
	}
	c.Status = status
	return nil
}

type fakeEpisodeStore struct {
	byID map[uint64]*model.Episode
}

func newFakeEpisodeStore(episodes ...*model.Episode) *fakeEpisodeStore {
	f := &fakeEpisodeStore{byID: make(map[uint64]*model.Episode)}
	for _, ep := range episodes {
		f.byID[ep.ID] = ep
	}
	return f
}

func (f *fakeEpisodeStore) GetByID(_ context.Context, id uint64) (*model.Episode, error) {
	ep, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrEpisodeNotFound
	}
	out := *ep
	return &out, nil
}

func (f *fakeEpisodeStore) ListForShows(_ context.Context, showIDs []uint64, from, to time.Time) ([]model.Episode, error) {
	want := make(map[uint64]bool, len(showIDs))
	for _, id := range showIDs {
		want[id] = true
	}
	var out []model.Episode
	for _, ep := range f.byID {
		if want[ep.ShowID] && !ep.AirDate.Before(from) && !ep.AirDate.After(to) {
			out = append(out, *ep)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AirDate.Equal(out[j].AirDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].AirDate.Before(out[j].AirDate)
	})
	return out, nil
}

type fakeShowStore struct {
	byID map[uint64]*model.Show
}

func newFakeShowStore(shows ...*model.Show) *fakeShowStore {
	f := &fakeShowStore{byID: make(map[uint64]*model.Show)}
	for _, s := range shows {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeShowStore) GetByID(_ context.Context, id uint64) (*model.Show, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeShowStore) ListByIDs(_ context.Context, ids []uint64) ([]model.Show, error) {
	var out []model.Show
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
}

func (f *fakeSink) Publish(_ context.Context, ev queue.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSink) byType(t queue.EventType) []queue.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []queue.ActivityEvent
	for _, ev := range f.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
