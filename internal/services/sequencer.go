package services

import (
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/ports"
	"math"
	"sort"
	"time"
)

// ExactSearchLimit is the largest number of free stops ordered by exhaustive
// search. Larger inputs use nearest neighbour followed by 2-opt.
const ExactSearchLimit = 8

const (
	scoreEpsilon    = 1e-9
	maxTwoOptPasses = 50
)

type SequenceRequest struct {
	Stops    []domain.Stop
	Matrix   map[ports.Pair]ports.RouteEstimate
	Priority domain.OptimizationPriority
	DepartAt time.Time
	Cost     CostModel
}

type SequenceResult struct {
	Order         []string
	DistanceMiles float64
	DriveHours    float64
	Score         float64
}

type sequencer struct {
	req     SequenceRequest
	stops   []domain.Stop
	free    []int
	origin  int
	dest    int
	pickups map[string][]int
}

// SequenceStops orders stops so every delivery follows the pickups of its
// load, the origin (if any) comes first and the destination (if any) comes
// last, minimizing the objective selected by the request priority.
//
// The result depends only on the input: ties are broken on stop id.
func SequenceStops(req SequenceRequest) (SequenceResult, error) {
	q, err := newSequencer(req)
	if err != nil {
		return SequenceResult{}, fmt.Errorf("sequence stops: %w", err)
	}

	var order []int
	if len(q.free) <= ExactSearchLimit {
		order = q.exact()
	} else {
		order = q.improve(q.greedy())
	}
	if order == nil {
		return SequenceResult{}, errors.New("sequence stops: no order satisfies pickup-before-delivery")
	}

	res := SequenceResult{Order: make([]string, 0, len(order)), Score: q.evaluate(order)}
	for i, idx := range order {
		res.Order = append(res.Order, q.stops[idx].ID)
		if i == 0 {
			continue
		}
		leg := q.leg(order[i-1], idx)
		res.DistanceMiles += leg.DistanceMiles
		res.DriveHours += leg.DriveTimeHours
	}
	return res, nil
}

func newSequencer(req SequenceRequest) (*sequencer, error) {
	if len(req.Stops) == 0 {
		return nil, errors.New("no stops")
	}

	q := &sequencer{
		req:     req,
		stops:   req.Stops,
		origin:  -1,
		dest:    -1,
		pickups: make(map[string][]int),
	}

	seen := make(map[string]struct{}, len(req.Stops))
	for i, s := range req.Stops {
		if s.ID == "" {
			return nil, fmt.Errorf("stop %d has empty id", i)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate stop id %q", s.ID)
		}
		seen[s.ID] = struct{}{}

		switch s.Role {
		case domain.StopRoleOrigin:
			if q.origin >= 0 {
				return nil, fmt.Errorf("more than one origin: %q and %q", q.stops[q.origin].ID, s.ID)
			}
			q.origin = i
		case domain.StopRoleDestination:
			if q.dest >= 0 {
				return nil, fmt.Errorf("more than one destination: %q and %q", q.stops[q.dest].ID, s.ID)
			}
			q.dest = i
		default:
			q.free = append(q.free, i)
		}

		if s.Action == domain.StopActionPickup && s.LoadID != "" {
			q.pickups[s.LoadID] = append(q.pickups[s.LoadID], i)
		}
	}

	sort.Slice(q.free, func(a, b int) bool { return q.stops[q.free[a]].ID < q.stops[q.free[b]].ID })

	if q.origin >= 0 && q.stops[q.origin].Action == domain.StopActionDelivery {
		for _, p := range q.pickups[q.stops[q.origin].LoadID] {
			if p != q.origin {
				return nil, fmt.Errorf("origin %q is a delivery whose pickup comes later", q.stops[q.origin].ID)
			}
		}
	}
	if q.dest >= 0 && q.stops[q.dest].Action == domain.StopActionPickup {
		for _, s := range q.stops {
			if s.Action == domain.StopActionDelivery && s.LoadID == q.stops[q.dest].LoadID {
				return nil, fmt.Errorf("destination %q is a pickup for a load delivered earlier", q.stops[q.dest].ID)
			}
		}
	}

	for i := range q.stops {
		if i == q.dest {
			continue
		}
		for j := range q.stops {
			if i == j || j == q.origin {
				continue
			}
			if _, ok := req.Matrix[ports.Pair{From: q.stops[i].ID, To: q.stops[j].ID}]; !ok {
				return nil, fmt.Errorf("missing distance from %q to %q", q.stops[i].ID, q.stops[j].ID)
			}
		}
	}

	return q, nil
}

func (q *sequencer) leg(from, to int) ports.RouteEstimate {
	return q.req.Matrix[ports.Pair{From: q.stops[from].ID, To: q.stops[to].ID}]
}

func (q *sequencer) step(t tally, from, to int) tally {
	if from < 0 {
		return t.visit(0, 0, q.stops[to])
	}
	leg := q.leg(from, to)
	return t.visit(leg.DistanceMiles, leg.DriveTimeHours, q.stops[to])
}

func (q *sequencer) score(t tally) float64 {
	return q.req.Cost.score(t, q.req.Priority)
}

func (q *sequencer) start() tally {
	return tally{clock: q.req.DepartAt}
}

// eligible reports whether stop i may be visited given the visited set.
func (q *sequencer) eligible(i int, visited []bool) bool {
	s := q.stops[i]
	if s.Action != domain.StopActionDelivery || s.LoadID == "" {
		return true
	}
	for _, p := range q.pickups[s.LoadID] {
		if !visited[p] {
			return false
		}
	}
	return true
}

func (q *sequencer) precedenceOK(order []int) bool {
	visited := make([]bool, len(q.stops))
	for _, i := range order {
		if !q.eligible(i, visited) {
			return false
		}
		visited[i] = true
	}
	return true
}

func (q *sequencer) evaluate(order []int) float64 {
	t := q.start()
	last := -1
	for _, i := range order {
		if last < 0 && i == q.origin {
			last = i
			continue
		}
		t = q.step(t, last, i)
		last = i
	}
	return q.score(t)
}

// exact runs a depth-first branch and bound over the free stops. Candidates
// are tried in id order and only a strictly better score replaces the best,
// so the lexicographically first optimum wins.
func (q *sequencer) exact() []int {
	visited := make([]bool, len(q.stops))
	path := make([]int, 0, len(q.stops))
	if q.origin >= 0 {
		visited[q.origin] = true
		path = append(path, q.origin)
	}

	best := math.Inf(1)
	var bestOrder []int
	remaining := len(q.free)

	var walk func(t tally, last int)
	walk = func(t tally, last int) {
		if remaining == 0 {
			final := path
			if q.dest >= 0 {
				t = q.step(t, last, q.dest)
				final = append(append([]int(nil), path...), q.dest)
			}
			if s := q.score(t); s < best-scoreEpsilon {
				best = s
				bestOrder = append([]int(nil), final...)
			}
			return
		}

		for _, i := range q.free {
			if visited[i] || !q.eligible(i, visited) {
				continue
			}
			next := q.step(t, last, i)
			if q.score(next) >= best-scoreEpsilon {
				continue
			}

			visited[i] = true
			path = append(path, i)
			remaining--

			walk(next, i)

			remaining++
			path = path[:len(path)-1]
			visited[i] = false
		}
	}

	walk(q.start(), q.origin)
	return bestOrder
}

// greedy builds an order by repeatedly taking the eligible stop with the
// lowest resulting score.
func (q *sequencer) greedy() []int {
	visited := make([]bool, len(q.stops))
	order := make([]int, 0, len(q.stops))
	t := q.start()
	last := -1
	if q.origin >= 0 {
		visited[q.origin] = true
		order = append(order, q.origin)
		last = q.origin
	}

	for n := 0; n < len(q.free); n++ {
		bestIdx := -1
		var bestTally tally
		bestScore := math.Inf(1)

		for _, i := range q.free {
			if visited[i] || !q.eligible(i, visited) {
				continue
			}
			next := q.step(t, last, i)
			if s := q.score(next); s < bestScore-scoreEpsilon {
				bestIdx, bestTally, bestScore = i, next, s
			}
		}
		if bestIdx < 0 {
			return nil
		}

		visited[bestIdx] = true
		order = append(order, bestIdx)
		t, last = bestTally, bestIdx
	}

	if q.dest >= 0 {
		order = append(order, q.dest)
	}
	return order
}

// improve applies 2-opt segment reversals to the free part of the order,
// keeping only reversals that preserve precedence and lower the score.
func (q *sequencer) improve(order []int) []int {
	if order == nil {
		return nil
	}

	lo, hi := 0, len(order)
	if q.origin >= 0 {
		lo = 1
	}
	if q.dest >= 0 {
		hi--
	}

	best := q.evaluate(order)
	for pass := 0; pass < maxTwoOptPasses; pass++ {
		improved := false
		for i := lo; i < hi-1; i++ {
			for j := i + 1; j < hi; j++ {
				cand := reverseSpan(order, i, j)
				if !q.precedenceOK(cand) {
					continue
				}
				if s := q.evaluate(cand); s < best-scoreEpsilon {
					order, best = cand, s
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return order
}

func reverseSpan(order []int, i, j int) []int {
	out := append([]int(nil), order...)
	for ; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
