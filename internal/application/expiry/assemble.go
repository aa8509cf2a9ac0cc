package expiry

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
	"github.com/vendfleet/backend/internal/domain/shared/valueobject"
)

// buildItems emits the items of one date. before holds the quantities ahead of ignores
// and after what is left once ignores are applied; the difference is reported as a
// separate ignored item.
func buildItems(
	label string,
	coilItemIDs []uuid.UUID,
	before, after map[expiry.LotKey]int64,
	ignores []expiry.ExpiryIgnore,
	describe func(uuid.UUID) *expiry.CoilItem,
) []ExpiringItem {
	items := make([]ExpiringItem, 0)
	for _, id := range coilItemIDs {
		key := expiry.LotKey{CoilItemID: id, ExpiryDate: label}
		total := before[key]
		if total <= 0 {
			continue
		}
		left := max(after[key], 0)
		ignored := total - left

		ci := describe(id)
		if ci == nil {
			ci = &expiry.CoilItem{ID: id}
		}
		if left > 0 {
			items = append(items, newExpiringItem(ci, left))
		}
		if ignored > 0 {
			item := newExpiringItem(ci, ignored)
			item.IsIgnored = true
			item.IgnoredAt = latestIgnoredAt(ignores, id, label)
			items = append(items, item)
		}
	}
	sortItems(items)
	return items
}

// attachRestocks fills the planned quantity and stocking run of items from the loads on day
func attachRestocks(items []ExpiringItem, ledger *expiry.Ledger, day valueobject.DayBounds) {
	for i := range items {
		restock, ok := ledger.RestocksOn(items[i].CoilItemID, day)
		if !ok {
			continue
		}
		items[i].PlannedQuantity = restock.PlannedQuantity
		items[i].StockingRun = &StockingRun{ID: restock.RunID, ScheduledFor: restock.RunAt}
	}
}

// latestIgnoredAt returns the newest ignore of the coil item dated on or before label
func latestIgnoredAt(ignores []expiry.ExpiryIgnore, coilItemID uuid.UUID, label string) *time.Time {
	var latest *time.Time
	for i := range ignores {
		ig := &ignores[i]
		if ig.CoilItemID != coilItemID || ig.ExpiryDate > label || ig.IgnoredAt.IsZero() {
			continue
		}
		if latest == nil || ig.IgnoredAt.After(*latest) {
			at := ig.IgnoredAt
			latest = &at
		}
	}
	return latest
}

func countWarnings(items []ExpiringItem) int {
	n := 0
	for _, item := range items {
		if !item.IsIgnored {
			n++
		}
	}
	return n
}

// sortItems orders items by SKU name, then machine code, then coil code
func sortItems(items []ExpiringItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Sku.Name != b.Sku.Name {
			return a.Sku.Name < b.Sku.Name
		}
		if a.Machine.Code != b.Machine.Code {
			return a.Machine.Code < b.Machine.Code
		}
		return a.Coil.Code < b.Coil.Code
	})
}

func sortSections(sections []ExpirySection) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].ExpiryDate < sections[j].ExpiryDate
	})
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

// runSites is the set of machines and locations one run visits
type runSites struct {
	machines  map[uuid.UUID]MachineSummary
	locations map[uuid.UUID]LocationSummary
}

func collectRunSites(entries []expiry.PickEntry) map[uuid.UUID]*runSites {
	sites := make(map[uuid.UUID]*runSites)
	for i := range entries {
		e := &entries[i]
		if e.CoilItem == nil || e.CoilItem.Coil == nil || e.CoilItem.Coil.Machine == nil {
			continue
		}
		rs, ok := sites[e.RunID]
		if !ok {
			rs = &runSites{
				machines:  make(map[uuid.UUID]MachineSummary),
				locations: make(map[uuid.UUID]LocationSummary),
			}
			sites[e.RunID] = rs
		}
		machine := e.CoilItem.Coil.Machine
		rs.machines[machine.ID] = toMachineSummary(machine)
		if machine.Location != nil {
			rs.locations[machine.Location.ID] = *toLocationSummary(machine.Location)
		}
	}
	return sites
}

// runsOn lists the runs scheduled inside day with the sites each one visits
func runsOn(runs []expiry.Run, day valueobject.DayBounds, sites map[uuid.UUID]*runSites) []RunSummary {
	summaries := make([]RunSummary, 0)
	for _, run := range runs {
		if !run.IsScheduled() || !day.Contains(*run.ScheduledFor) {
			continue
		}
		summary := RunSummary{
			ID:           run.ID,
			ScheduledFor: *run.ScheduledFor,
			Locations:    []LocationSummary{},
			Machines:     []MachineSummary{},
		}
		if rs, ok := sites[run.ID]; ok {
			for _, loc := range rs.locations {
				summary.Locations = append(summary.Locations, loc)
			}
			for _, m := range rs.machines {
				summary.Machines = append(summary.Machines, m)
			}
			sort.Slice(summary.Locations, func(i, j int) bool {
				return summary.Locations[i].Name < summary.Locations[j].Name
			})
			sort.Slice(summary.Machines, func(i, j int) bool {
				return summary.Machines[i].Code < summary.Machines[j].Code
			})
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ScheduledFor.Before(summaries[j].ScheduledFor)
	})
	return summaries
}
