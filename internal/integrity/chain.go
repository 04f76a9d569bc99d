package integrity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ashita-ai/shinrai/internal/model"
)

// VerifyChain walks a case's history entries and reports linkage defects.
// Purely diagnostic: findings are reported, never thrown, and the ledger is
// never touched.
//
//   - A broken link is a non-null previous_run_id that matches no entry in
//     the case's history.
//   - An orphaned entry is one that cannot reach a chain root (an entry with
//     null previous_run_id) through valid links — it sits above a break.
//   - A forked entry shares its parent with another entry. Forks arise from
//     concurrent appends, which each resolve their own parent snapshot, and
//     are tolerated as non-fatal.
func VerifyChain(entries []model.HistoryEntry) model.ChainVerification {
	v := model.ChainVerification{
		IsValid:         true,
		BrokenLinks:     []uuid.UUID{},
		OrphanedEntries: []uuid.UUID{},
		TotalEntries:    len(entries),
	}
	if len(entries) == 0 {
		return v
	}

	byID := make(map[uuid.UUID]model.HistoryEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	broken := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.PreviousRunID != nil {
			if _, ok := byID[*e.PreviousRunID]; !ok {
				broken[e.ID] = true
			}
		}
	}

	// reachesRoot memoizes whether an entry's ancestor walk ends at a null
	// previous_run_id without crossing a break or a cycle.
	reaches := make(map[uuid.UUID]bool, len(entries))
	var walk func(id uuid.UUID, seen map[uuid.UUID]bool) bool
	walk = func(id uuid.UUID, seen map[uuid.UUID]bool) bool {
		if r, ok := reaches[id]; ok {
			return r
		}
		if seen[id] {
			return false // cycle
		}
		seen[id] = true

		e := byID[id]
		var r bool
		switch {
		case broken[id]:
			r = false
		case e.PreviousRunID == nil:
			r = true
		default:
			r = walk(*e.PreviousRunID, seen)
		}
		reaches[id] = r
		return r
	}

	// Parent reference counts for fork detection.
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range entries {
		if e.PreviousRunID != nil {
			children[*e.PreviousRunID] = append(children[*e.PreviousRunID], e.ID)
		}
	}

	for _, e := range entries {
		ok := walk(e.ID, map[uuid.UUID]bool{})
		switch {
		case broken[e.ID]:
			v.BrokenLinks = append(v.BrokenLinks, e.ID)
		case !ok:
			v.OrphanedEntries = append(v.OrphanedEntries, e.ID)
		default:
			v.VerifiedEntries++
		}
	}

	for _, kids := range children {
		if len(kids) > 1 {
			v.ForkedEntries = append(v.ForkedEntries, kids...)
		}
	}
	sort.Slice(v.ForkedEntries, func(i, j int) bool {
		return v.ForkedEntries[i].String() < v.ForkedEntries[j].String()
	})

	// Forks are diagnosable but not fatal.
	v.IsValid = len(v.BrokenLinks) == 0 && len(v.OrphanedEntries) == 0
	return v
}

// FindDuplicates groups a case's entries by input hash and reports groups
// with more than one entry: recomputation without any underlying input
// change. Groups are ordered by earliest computation; entries within a
// group are oldest first.
func FindDuplicates(entries []model.HistoryEntry) []model.DuplicateGroup {
	byHash := make(map[string][]model.HistoryEntry)
	for _, e := range entries {
		if e.InputHash == "" {
			continue
		}
		byHash[e.InputHash] = append(byHash[e.InputHash], e)
	}

	groups := []model.DuplicateGroup{}
	for hash, dupes := range byHash {
		if len(dupes) < 2 {
			continue
		}
		sort.Slice(dupes, func(i, j int) bool {
			return dupes[i].ComputedAt.Before(dupes[j].ComputedAt)
		})
		g := model.DuplicateGroup{
			InputHash: hash,
			Count:     len(dupes),
		}
		for _, e := range dupes {
			g.EntryIDs = append(g.EntryIDs, e.ID)
			g.Timestamps = append(g.Timestamps, e.ComputedAt)
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Timestamps[0].Before(groups[j].Timestamps[0])
	})
	return groups
}
