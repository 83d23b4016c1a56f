package match

// Partition is a disjoint-set forest over the indices 0..n-1. It is not safe
// for concurrent use.
type Partition struct {
	parent []int
}

// NewPartition creates n singleton sets.
func NewPartition(n int) *Partition {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &Partition{parent: parent}
}

// Len returns the number of indices in the partition.
func (p *Partition) Len() int {
	return len(p.parent)
}

// Find returns the root of i's set, halving the path as it goes.
func (p *Partition) Find(i int) int {
	for p.parent[i] != i {
		p.parent[i] = p.parent[p.parent[i]]
		i = p.parent[i]
	}
	return i
}

// Union merges the sets holding i and j and reports whether they were
// separate. j's root is attached under i's.
func (p *Partition) Union(i, j int) bool {
	ri, rj := p.Find(i), p.Find(j)
	if ri == rj {
		return false
	}
	p.parent[rj] = ri
	return true
}

// Same reports whether i and j share a set.
func (p *Partition) Same(i, j int) bool {
	return p.Find(i) == p.Find(j)
}

// Groups returns every set as a list of member indices. Members are in
// ascending order and groups are ordered by their smallest member.
func (p *Partition) Groups() [][]int {
	slot := make(map[int]int)
	var groups [][]int
	for i := range p.parent {
		root := p.Find(i)
		k, ok := slot[root]
		if !ok {
			k = len(groups)
			slot[root] = k
			groups = append(groups, nil)
		}
		groups[k] = append(groups[k], i)
	}
	return groups
}
