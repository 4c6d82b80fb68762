package tour

// permutations calls fn with every ordering of 1..k behind a fixed 0, in
// lexicographic order. fn owns the slice it receives.
func permutations(k int, fn func(order []int)) {
	cur := make([]int, k+1)
	for i := range cur {
		cur[i] = i
	}
	for {
		fn(append([]int(nil), cur...))
		if !nextPermutation(cur[1:]) {
			return
		}
	}
}

// nextPermutation rearranges a into its lexicographic successor and reports
// false once a is the last ordering.
func nextPermutation(a []int) bool {
	i := len(a) - 2
	for i >= 0 && a[i] >= a[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(a) - 1
	for a[j] <= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]
	for l, r := i+1, len(a)-1; l < r; l, r = l+1, r-1 {
		a[l], a[r] = a[r], a[l]
	}
	return true
}

// candidate is an unverified tour with its graph cost.
type candidate struct {
	order []int
	cost  float64
}

// candidateHeap implements heap.Interface, cheapest first. Equal costs fall
// back to lexicographic order.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	a, b := h[i].order, h[j].order
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(candidate))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
