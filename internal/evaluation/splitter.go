package evaluation

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
)

type Fold struct {
	Repeat int
	Split  int
	Train  []int
	Test   []int
}

// RepeatedStratifiedKFold repeats stratified k-fold splitting Repeats times.
// A single random stream seeded with Seed drives every repeat, so the
// folds are a pure function of (labels, Splits, Repeats, Seed).
type RepeatedStratifiedKFold struct {
	Splits  int
	Repeats int
	Seed    int64
	Logger  *slog.Logger
}

func NewRepeatedStratifiedKFold(splits, repeats int, seed int64) *RepeatedStratifiedKFold {
	return &RepeatedStratifiedKFold{
		Splits:  splits,
		Repeats: repeats,
		Seed:    seed,
		Logger:  slog.Default(),
	}
}

func (rs *RepeatedStratifiedKFold) NumFolds() int {
	return rs.Splits * rs.Repeats
}

func (rs *RepeatedStratifiedKFold) Split(y []int) ([]Fold, error) {
	if rs.Splits < 2 {
		return nil, fmt.Errorf("number of splits must be at least 2, got %d", rs.Splits)
	}
	if rs.Repeats < 1 {
		return nil, fmt.Errorf("number of repeats must be at least 1, got %d", rs.Repeats)
	}
	if rs.Splits > len(y) {
		return nil, fmt.Errorf("cannot have number of splits=%d greater than the number of samples=%d", rs.Splits, len(y))
	}

	encoded, counts := encodeByFirstAppearance(y)

	minCount := counts[0]
	allTooSmall := true
	for _, c := range counts {
		minCount = min(minCount, c)
		if rs.Splits <= c {
			allTooSmall = false
		}
	}
	if allTooSmall {
		return nil, fmt.Errorf("n_splits=%d cannot be greater than the number of members in each class", rs.Splits)
	}
	if rs.Splits > minCount {
		rs.logger().Warn("least populated class has fewer members than n_splits",
			"members", minCount, "n_splits", rs.Splits)
	}

	allocation := rs.allocate(encoded, len(counts))
	rng := rand.New(rand.NewSource(rs.Seed))

	folds := make([]Fold, 0, rs.NumFolds())
	for r := 0; r < rs.Repeats; r++ {
		testFolds := rs.assignTestFolds(rng, encoded, allocation)

		for s := 0; s < rs.Splits; s++ {
			fold := Fold{Repeat: r, Split: s}
			for i, f := range testFolds {
				if f == s {
					fold.Test = append(fold.Test, i)
				} else {
					fold.Train = append(fold.Train, i)
				}
			}
			folds = append(folds, fold)
		}
	}

	return folds, nil
}

// allocate deals the sorted class codes round-robin over the splits and
// returns, for every split, how many members of each class it receives.
func (rs *RepeatedStratifiedKFold) allocate(encoded []int, nClasses int) [][]int {
	order := make([]int, len(encoded))
	copy(order, encoded)
	sort.Ints(order)

	allocation := make([][]int, rs.Splits)
	for s := range allocation {
		allocation[s] = make([]int, nClasses)
		for i := s; i < len(order); i += rs.Splits {
			allocation[s][order[i]]++
		}
	}
	return allocation
}

func (rs *RepeatedStratifiedKFold) assignTestFolds(rng *rand.Rand, encoded []int, allocation [][]int) []int {
	nClasses := len(allocation[0])
	testFolds := make([]int, len(encoded))

	for k := 0; k < nClasses; k++ {
		var foldsForClass []int
		for s := 0; s < rs.Splits; s++ {
			for c := 0; c < allocation[s][k]; c++ {
				foldsForClass = append(foldsForClass, s)
			}
		}
		rng.Shuffle(len(foldsForClass), func(i, j int) {
			foldsForClass[i], foldsForClass[j] = foldsForClass[j], foldsForClass[i]
		})

		next := 0
		for i, code := range encoded {
			if code == k {
				testFolds[i] = foldsForClass[next]
				next++
			}
		}
	}

	return testFolds
}

func (rs *RepeatedStratifiedKFold) logger() *slog.Logger {
	if rs.Logger == nil {
		return slog.Default()
	}
	return rs.Logger
}

// encodeByFirstAppearance maps labels to 0..k-1 in order of first occurrence.
func encodeByFirstAppearance(y []int) ([]int, []int) {
	codes := make(map[int]int)
	encoded := make([]int, len(y))
	var counts []int

	for i, label := range y {
		code, ok := codes[label]
		if !ok {
			code = len(counts)
			codes[label] = code
			counts = append(counts, 0)
		}
		encoded[i] = code
		counts[code]++
	}

	return encoded, counts
}
