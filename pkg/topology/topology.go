package topology

// Hubs returns all hubs in system order.
func (t *Topology) Hubs() []Hub {
	out := make([]Hub, len(t.hubs))
	copy(out, t.hubs)
	return out
}

// Links returns all links in order.
func (t *Topology) Links() []Link {
	out := make([]Link, len(t.links))
	copy(out, t.links)
	return out
}

// Link returns the link with the given id.
func (t *Topology) Link(id int) (Link, bool) {
	if id < 1 || id > len(t.links) {
		return Link{}, false
	}
	return t.links[id-1], true
}

// LinkOf returns the link id the hub at index i belongs to.
func (t *Topology) LinkOf(i int) (int, bool) {
	if i < 0 || i >= len(t.linkOf) {
		return 0, false
	}
	return t.linkOf[i], true
}

// HubCount is the number of hubs in the system.
func (t *Topology) HubCount() int {
	return len(t.hubs)
}

// LinkCount is the number of links in the system.
func (t *Topology) LinkCount() int {
	return len(t.links)
}

// TotalAnodes is the anode count the topology was built for.
func (t *Topology) TotalAnodes() int {
	return t.spec.TotalAnodes
}

// TotalCurrentMA is the load of every hub combined.
func (t *Topology) TotalCurrentMA() float64 {
	var sum float64
	for _, h := range t.hubs {
		sum += h.CurrentMA
	}
	return sum
}

// Spec returns the spec the topology was built from.
func (t *Topology) Spec() Spec {
	return t.spec
}
