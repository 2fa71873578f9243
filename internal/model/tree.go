package model

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
)

// TreeOptions controls decision tree growth.
type TreeOptions struct {
	// MaxDepth limits the depth of the tree; 0 means unlimited.
	MaxDepth int
	// MinSamplesSplit is the minimum number of samples needed to split a node.
	MinSamplesSplit int
	// Seed drives the order in which features are examined at each node.
	Seed int64
}

// DecisionTree is a binary CART classifier using Gini impurity.
type DecisionTree struct {
	opts      TreeOptions
	root      *treeNode
	classes   []int
	nFeatures int
	depth     int
	leaves    int
}

type treeNode struct {
	leaf      bool
	class     int // index into DecisionTree.classes
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// NewDecisionTree returns an unfitted tree.
func NewDecisionTree(opts TreeOptions) *DecisionTree {
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	return &DecisionTree{opts: opts}
}

// Classes returns the distinct labels seen during Fit in ascending order.
func (t *DecisionTree) Classes() []int {
	return append([]int(nil), t.classes...)
}

// Depth returns the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTree) Depth() int { return t.depth }

// Leaves returns the number of leaves of the fitted tree.
func (t *DecisionTree) Leaves() int { return t.leaves }

// Fit grows the tree on x and y.
func (t *DecisionTree) Fit(ctx context.Context, x [][]float64, y []int) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("have %d samples but %d labels", len(x), len(y))
	}
	t.nFeatures = len(x[0])
	for i, row := range x {
		if len(row) != t.nFeatures {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(row), t.nFeatures)
		}
	}

	t.classes = distinct(y)
	classIndex := make(map[int]int, len(t.classes))
	for i, c := range t.classes {
		classIndex[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = classIndex[label]
	}

	b := &builder{
		ctx:      ctx,
		x:        x,
		y:        encoded,
		nClasses: len(t.classes),
		opts:     t.opts,
		rnd:      rand.New(rand.NewSource(t.opts.Seed)),
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}

	root, err := b.grow(idx, 0)
	if err != nil {
		return err
	}
	t.root = root
	t.depth = b.maxDepth
	t.leaves = b.leaves
	return nil
}

// Predict returns the predicted label for every sample in x.
func (t *DecisionTree) Predict(x [][]float64) ([]int, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	out := make([]int, len(x))
	for i, row := range x {
		if len(row) != t.nFeatures {
			return nil, fmt.Errorf("sample %d has %d features, tree fitted on %d", i, len(row), t.nFeatures)
		}
		n := t.root
		for !n.leaf {
			if row[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = t.classes[n.class]
	}
	return out, nil
}

type builder struct {
	ctx      context.Context
	x        [][]float64
	y        []int
	nClasses int
	opts     TreeOptions
	rnd      *rand.Rand
	maxDepth int
	leaves   int
}

func (b *builder) grow(idx []int, depth int) (*treeNode, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}
	if depth > b.maxDepth {
		b.maxDepth = depth
	}

	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}

	if b.stop(counts, len(idx), depth) {
		return b.leaf(counts), nil
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		return b.leaf(counts), nil
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(counts), nil
	}

	leftNode, err := b.grow(left, depth+1)
	if err != nil {
		return nil, err
	}
	rightNode, err := b.grow(right, depth+1)
	if err != nil {
		return nil, err
	}
	return &treeNode{feature: feature, threshold: threshold, left: leftNode, right: rightNode}, nil
}

func (b *builder) stop(counts []int, n, depth int) bool {
	if n < b.opts.MinSamplesSplit {
		return true
	}
	if b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth {
		return true
	}
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func (b *builder) leaf(counts []int) *treeNode {
	b.leaves++
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return &treeNode{leaf: true, class: best}
}

// bestSplit scans every feature, in a seeded random order, for the
// threshold minimising weighted Gini impurity. Ties keep the first split found.
func (b *builder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	n := len(idx)
	bestScore := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	sorted := make([]int, n)
	leftCounts := make([]int, b.nClasses)
	rightCounts := make([]int, b.nClasses)

	for _, f := range b.rnd.Perm(len(b.x[idx[0]])) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = counts[c]
		}

		for pos := 0; pos < n-1; pos++ {
			label := b.y[sorted[pos]]
			leftCounts[label]++
			rightCounts[label]--

			cur := b.x[sorted[pos]][f]
			next := b.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}

			nl := pos + 1
			nr := n - nl
			score := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(n)
			if bestFeature < 0 || score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func distinct(values []int) []int {
	seen := make(map[int]struct{}, 2)
	var out []int
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
