package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/OutletRadar/outlet-api/geo"
	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/utils"
)

// OutletStore owns the in-memory outlet snapshot. The snapshot is fetched
// wholesale from the upstream backend and treated as immutable; a refresh
// swaps it atomically. All geo derivations (grouping, overlap, nearby) are
// computed against the current snapshot.
type OutletStore struct {
	upstream            *UpstreamClient
	prefetchConcurrency int

	mu       sync.RWMutex
	snapshot []models.Outlet
	snapGen  uint64
}

// NewOutletStore builds a store around the upstream client.
func NewOutletStore(upstream *UpstreamClient, prefetchConcurrency int) *OutletStore {
	if prefetchConcurrency <= 0 {
		prefetchConcurrency = 1
	}
	return &OutletStore{
		upstream:            upstream,
		prefetchConcurrency: prefetchConcurrency,
	}
}

// Refresh fetches a new snapshot. On failure the previous snapshot is kept
// and the error is returned so the caller can surface a retryable state.
func (s *OutletStore) Refresh(ctx context.Context) error {
	outlets, err := s.upstream.GetAllOutlets(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshot = outlets
	s.snapGen++
	s.mu.Unlock()

	utils.SafeInfo("Outlet snapshot refreshed: %d outlets", len(outlets))
	return nil
}

// Outlets returns the current snapshot. The returned slice must not be
// mutated.
func (s *OutletStore) Outlets() []models.Outlet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Len reports the snapshot size.
func (s *OutletStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

// Get looks up one outlet by id.
func (s *OutletStore) Get(id models.FlexID) (models.Outlet, bool) {
	for _, o := range s.Outlets() {
		if o.ID == id {
			return o, true
		}
	}
	return models.Outlet{}, false
}

// GroupedByArea buckets the snapshot by the address area heuristic. Outlets
// without an address land under "Other".
func (s *OutletStore) GroupedByArea() map[string][]models.Outlet {
	grouped := make(map[string][]models.Outlet)
	for _, o := range s.Outlets() {
		area := "Other"
		if strings.TrimSpace(o.Address) != "" {
			area = utils.ExtractArea(o.Address)
		}
		grouped[area] = append(grouped[area], o)
	}
	return grouped
}

// Overlapping returns the outlets whose 5 km catchment intersects the given
// outlet's, ranked by distance.
func (s *OutletStore) Overlapping(id models.FlexID) ([]geo.RankedOutlet, bool) {
	center, ok := s.Get(id)
	if !ok {
		return nil, false
	}

	within := geo.WithinRadius(center, s.Outlets(), geo.DefaultCatchmentRadiusKm)
	return geo.SortByDistance(within, geo.OutletCoordinate(center)), true
}

// OverlapFlags computes the per-outlet catchment-overlap flag, keyed by
// outlet id. Used as a cannibalization-risk signal on listings.
func (s *OutletStore) OverlapFlags() map[models.FlexID]bool {
	outlets := s.Outlets()
	flags := make(map[models.FlexID]bool, len(outlets))
	for _, o := range outlets {
		flags[o.ID] = geo.HasOverlap(o, outlets, geo.DefaultCatchmentRadiusKm)
	}
	return flags
}

// Nearby ranks snapshot outlets by distance from a point, keeping those
// within radiusKm. Computed locally; the upstream nearby endpoint is not
// consulted.
func (s *OutletStore) Nearby(latitude, longitude, radiusKm float64) []geo.RankedOutlet {
	origin := geo.Coordinate{Latitude: latitude, Longitude: longitude}
	ranked := geo.SortByDistance(s.Outlets(), origin)

	nearby := make([]geo.RankedOutlet, 0, len(ranked))
	for _, r := range ranked {
		if r.DistanceKm <= radiusKm {
			nearby = append(nearby, r)
		}
	}
	return nearby
}

// Search filters the snapshot by a case-insensitive name/address match and
// sorts by name or area.
func (s *OutletStore) Search(term string, sortBy string) []models.Outlet {
	needle := strings.ToLower(strings.TrimSpace(term))

	var results []models.Outlet
	for _, o := range s.Outlets() {
		if needle == "" ||
			strings.Contains(strings.ToLower(o.Name), needle) ||
			strings.Contains(strings.ToLower(o.Address), needle) {
			results = append(results, o)
		}
	}

	switch sortBy {
	case "area":
		sort.SliceStable(results, func(i, j int) bool {
			return utils.ExtractArea(results[i].Address) < utils.ExtractArea(results[j].Address)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Name < results[j].Name
		})
	}

	return results
}

// PrefetchHours fetches operating hours for every outlet still missing them,
// as a bounded-concurrency batch. Individual failures are logged and leave
// that outlet's hours absent (its status stays Unknown); they never abort
// the batch. The snapshot is swapped once at the end.
func (s *OutletStore) PrefetchHours(ctx context.Context) {
	s.mu.RLock()
	current := s.snapshot
	gen := s.snapGen
	s.mu.RUnlock()

	type result struct {
		id    models.FlexID
		hours []models.DayHours
	}

	sem := make(chan struct{}, s.prefetchConcurrency)
	resultCh := make(chan result, len(current))
	var wg sync.WaitGroup

	for _, o := range current {
		if len(o.OperatingHours) > 0 {
			continue
		}
		wg.Add(1)
		go func(id models.FlexID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			hours, err := s.upstream.GetOperatingHours(ctx, id)
			if err != nil {
				utils.SafeWarn("Hours prefetch failed for outlet %s: %v", string(id), err)
				return
			}
			resultCh <- result{id: id, hours: hours}
		}(o.ID)
	}

	wg.Wait()
	close(resultCh)

	fetched := make(map[models.FlexID][]models.DayHours)
	for r := range resultCh {
		fetched[r.id] = r.hours
	}
	if len(fetched) == 0 {
		return
	}

	updated := make([]models.Outlet, len(current))
	copy(updated, current)
	for i := range updated {
		if hours, ok := fetched[updated[i].ID]; ok {
			updated[i].OperatingHours = hours
		}
	}

	s.mu.Lock()
	// A refresh may have replaced the snapshot mid-batch; its hours would be
	// stale for the new data, so the merge is dropped.
	if s.snapGen == gen {
		s.snapshot = updated
	}
	s.mu.Unlock()

	utils.SafeInfo("Hours prefetch complete: %d outlets updated", len(fetched))
}
