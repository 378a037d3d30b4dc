package classifier

import "sort"

// Ranked 類別索引與機率
type Ranked struct {
	Index       int
	Probability float64
}

// ArgMax 回傳機率最高的索引；平手時取最小索引，空分布回傳 -1
func ArgMax(dist []float64) (int, float64) {
	if len(dist) == 0 {
		return -1, 0
	}
	best := 0
	for i := 1; i < len(dist); i++ {
		if dist[i] > dist[best] {
			best = i
		}
	}
	return best, dist[best]
}

// TopK 依機率由高到低取前 k 個，平手時索引小者在前
func TopK(dist []float64, k int) []Ranked {
	if k <= 0 || len(dist) == 0 {
		return nil
	}
	ranked := make([]Ranked, len(dist))
	for i, p := range dist {
		ranked[i] = Ranked{Index: i, Probability: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
