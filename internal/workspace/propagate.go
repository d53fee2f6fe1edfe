package workspace

import "workspace-server/internal/database"

// sizeDeltas accumulates per-folder size changes for one commit. Deltas for
// the same folder merge; insertion order is kept so commits are stable.
type sizeDeltas struct {
	order []string
	byID  map[string]int64
}

func newSizeDeltas() *sizeDeltas {
	return &sizeDeltas{byID: make(map[string]int64)}
}

func (d *sizeDeltas) add(id string, delta int64) {
	if _, ok := d.byID[id]; !ok {
		d.order = append(d.order, id)
	}
	d.byID[id] += delta
}

// addChain applies delta to every folder in chain.
func (d *sizeDeltas) addChain(chain []string, delta int64) {
	if delta == 0 {
		return
	}
	for _, id := range chain {
		d.add(id, delta)
	}
}

func (d *sizeDeltas) list() []database.SizeDelta {
	var out []database.SizeDelta
	for _, id := range d.order {
		if delta := d.byID[id]; delta != 0 {
			out = append(out, database.SizeDelta{NodeID: id, Delta: delta})
		}
	}
	return out
}

// moveDeltas moves size from oldChain to newChain. Folders on both chains
// hold the node before and after the move, so only the set differences
// change.
func moveDeltas(oldChain, newChain []string, size int64) *sizeDeltas {
	d := newSizeDeltas()
	if size == 0 {
		return d
	}

	inOld := make(map[string]struct{}, len(oldChain))
	for _, id := range oldChain {
		inOld[id] = struct{}{}
	}
	inNew := make(map[string]struct{}, len(newChain))
	for _, id := range newChain {
		inNew[id] = struct{}{}
	}

	for _, id := range oldChain {
		if _, shared := inNew[id]; !shared {
			d.add(id, -size)
		}
	}
	for _, id := range newChain {
		if _, shared := inOld[id]; !shared {
			d.add(id, size)
		}
	}
	return d
}
