package service

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// EpisodeAvailability reports the sellable state of one episode's
// slots on its air date.
type EpisodeAvailability struct {
	EpisodeID uint64                            `json:"episode_id"`
	ShowID    uint64                            `json:"show_id"`
	Title     string                            `json:"title"`
	AirDate   time.Time                         `json:"air_date"`
	Slots     map[model.SlotType]model.SlotCounts `json:"slots"`
}

// AvailabilityService is the scheduling query side: a pure read over
// episodes and the ledger, used by callers to decide what to attempt
// to hold next.  Results always reflect the ledger's current state;
// they are never served from a cache.
type AvailabilityService struct {
	ledger   Ledger
	episodes EpisodeStore
	shows    ShowStore
}

// NewAvailabilityService wires the query service.
func NewAvailabilityService(ledger Ledger, episodes EpisodeStore, shows ShowStore) *AvailabilityService {
	return &AvailabilityService{ledger: ledger, episodes: episodes, shows: shows}
}

// GetAvailability returns per-show, per-episode slot availability for
// the requested shows inside [from, to].  Shows the actor's
// organization does not own are silently omitted.  Episodes without a
// materialized inventory row report their show's default counts as
// fully available.
func (s *AvailabilityService) GetAvailability(ctx context.Context, actor model.Actor,
	showIDs []uint64, from, to time.Time) (map[uint64][]EpisodeAvailability, error) {

	shows, err := s.shows.ListByIDs(ctx, showIDs)
	if err != nil {
		return nil, err
	}
	byShow := make(map[uint64]*model.Show, len(shows))
	visible := make([]uint64, 0, len(shows))
	for i := range shows {
		sh := &shows[i]
		if !actor.CanAccessOrg(sh.OrgID) {
			continue
		}
		byShow[sh.ID] = sh
		visible = append(visible, sh.ID)
	}

	episodes, err := s.episodes.ListForShows(ctx, visible, from, to)
	if err != nil {
		return nil, err
	}
	episodeIDs := make([]uint64, 0, len(episodes))
	for _, ep := range episodes {
		episodeIDs = append(episodeIDs, ep.ID)
	}
	ledger, err := s.ledger.GetForEpisodes(ctx, episodeIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64][]EpisodeAvailability, len(byShow))
	for _, ep := range episodes {
		show := byShow[ep.ShowID]
		if show == nil {
			continue
		}
		inv, ok := ledger[ep.ID]
		if !ok {
			inv = model.DefaultInventory(ep.ID, show)
		}
		slots := make(map[model.SlotType]model.SlotCounts, 3)
		for _, t := range model.SlotTypes() {
			slots[t] = inv.Counts(t)
		}
		out[ep.ShowID] = append(out[ep.ShowID], EpisodeAvailability{
			EpisodeID: ep.ID,
			ShowID:    ep.ShowID,
			Title:     ep.Title,
			AirDate:   ep.AirDate,
			Slots:     slots,
		})
	}
	return out, nil
}
