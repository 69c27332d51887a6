package hypergraph

// Link is one pairwise edge derived from a hyperedge. A hyperedge with k
// members yields k*(k-1)/2 links, all carrying its id and weight. Links from
// different hyperedges over the same node pair stay distinct.
type Link struct {
	Key         string  `json:"key"`
	HyperedgeID string  `json:"hyperedge_id"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Weight      float64 `json:"weight"`
}

// LinkKey builds the stable identity of a projected link: the ordered member
// pair scoped by the hyperedge that produced it
func LinkKey(hyperedgeID, source, target string) string {
	return hyperedgeID + ":" + source + "|" + target
}

// Project flattens every hyperedge into its pairwise links. Pairs are
// enumerated in member order (index-ascending), so the output is fully
// determined by the snapshot.
func Project(snap *Snapshot) []Link {
	links := make([]Link, 0, len(snap.Hyperedges))
	for _, edge := range snap.Hyperedges {
		for i := 0; i < len(edge.Members); i++ {
			for j := i + 1; j < len(edge.Members); j++ {
				source, target := edge.Members[i], edge.Members[j]
				links = append(links, Link{
					Key:         LinkKey(edge.ID, source, target),
					HyperedgeID: edge.ID,
					Source:      source,
					Target:      target,
					Weight:      edge.Weight,
				})
			}
		}
	}
	return links
}
