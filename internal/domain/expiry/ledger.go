package expiry

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
)

// Ledger is the load history of a set of coil items, split into expiry lots per
// pick entry and indexed by restock time. It is built once per query and read only.
type Ledger struct {
	items map[uuid.UUID]*coilLedger
}

type coilLedger struct {
	coilItem *CoilItem
	loads    []ledgerLoad
	index    *PlannedIndex
}

type ledgerLoad struct {
	runID   uuid.UUID
	runAt   time.Time
	planned int64
	lots    []Lot
}

// Restock summarises the loads of one coil item that fall inside one day
type Restock struct {
	PlannedQuantity int64
	RunID           uuid.UUID
	RunAt           time.Time
}

// NewLedger builds a ledger from pick entries. Entries of unscheduled runs are skipped.
// loc is the company zone used to derive shelf-life expiry dates.
func NewLedger(entries []PickEntry, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	l := &Ledger{items: make(map[uuid.UUID]*coilLedger)}

	for i := range entries {
		e := &entries[i]
		if e.RunScheduledFor.IsZero() {
			continue
		}
		cl, ok := l.items[e.CoilItemID]
		if !ok {
			cl = &coilLedger{}
			l.items[e.CoilItemID] = cl
		}
		if cl.coilItem == nil && e.CoilItem.IsComplete() {
			cl.coilItem = e.CoilItem
		}
		planned := PlannedQuantity(e)
		cl.loads = append(cl.loads, ledgerLoad{
			runID:   e.RunID,
			runAt:   e.RunScheduledFor,
			planned: planned,
			lots: BuildExpiryLots(LotInput{
				BaseExpiryDate: e.BaseExpiryDate(loc),
				PlannedCount:   planned,
				Overrides:      e.ExpiryOverrides,
			}),
		})
	}

	for _, cl := range l.items {
		sort.SliceStable(cl.loads, func(i, j int) bool {
			return cl.loads[i].runAt.Before(cl.loads[j].runAt)
		})
		planned := make([]PlannedEntry, len(cl.loads))
		for i, load := range cl.loads {
			planned[i] = PlannedEntry{RunAtMs: load.runAt.UnixMilli(), PlannedQuantity: load.planned}
		}
		cl.index = BuildPlannedIndex(planned)
	}
	return l
}

// CoilItemIDs returns the coil items present in the ledger in a stable order
func (l *Ledger) CoilItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l.items))
	for id := range l.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// CoilItem returns the first complete coil item description seen for id, or nil
func (l *Ledger) CoilItem(id uuid.UUID) *CoilItem {
	if cl, ok := l.items[id]; ok {
		return cl.coilItem
	}
	return nil
}

// ExpiringOn returns how many loaded units of the coil item expire on day and are
// still in the coil. Only restocks loaded before day.End count against a load: each
// load's lots are consumed earliest date first by the restocks that followed it.
func (l *Ledger) ExpiringOn(coilItemID uuid.UUID, day valueobject.DayBounds) int64 {
	return l.expiringOn(coilItemID, day, uuid.Nil)
}

// ExpiringOnExcludingRun is ExpiringOn without the lots loaded by runID.
// A visit cannot swap out the units it loads itself, so they are never owed by it;
// its planned quantity still counts as a restock against earlier loads.
func (l *Ledger) ExpiringOnExcludingRun(coilItemID uuid.UUID, day valueobject.DayBounds, runID uuid.UUID) int64 {
	return l.expiringOn(coilItemID, day, runID)
}

func (l *Ledger) expiringOn(coilItemID uuid.UUID, day valueobject.DayBounds, skipRun uuid.UUID) int64 {
	cl, ok := l.items[coilItemID]
	if !ok {
		return 0
	}
	endMs := day.End.UnixMilli()
	var total int64
	for _, load := range cl.loads {
		runAtMs := load.runAt.UnixMilli()
		if runAtMs >= endMs {
			break
		}
		if skipRun != uuid.Nil && load.runID == skipRun {
			continue
		}
		if QuantityOn(load.lots, day.Label) == 0 {
			continue
		}
		restocked := cl.index.SumPlannedBetween(runAtMs, endMs)
		total += QuantityOn(ApplyRestockConsumption(load.lots, restocked), day.Label)
	}
	return total
}

// RestocksOn summarises the loads of the coil item scheduled inside day.
// The run reported is the earliest one; ok is false when there are none.
func (l *Ledger) RestocksOn(coilItemID uuid.UUID, day valueobject.DayBounds) (Restock, bool) {
	cl, found := l.items[coilItemID]
	if !found {
		return Restock{}, false
	}
	var restock Restock
	ok := false
	for _, load := range cl.loads {
		if !day.Contains(load.runAt) {
			continue
		}
		if !ok {
			restock.RunID = load.runID
			restock.RunAt = load.runAt
			ok = true
		}
		restock.PlannedQuantity += load.planned
	}
	return restock, ok
}
