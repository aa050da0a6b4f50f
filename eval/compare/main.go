package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/lintang-b-s/Pathviz/pkg"
	"github.com/lintang-b-s/Pathviz/pkg/concurrent"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	log "github.com/lintang-b-s/Pathviz/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var (
	numGrids       = flag.Int("n", 200, "number of random grids")
	rows           = flag.Int("rows", pkg.DEFAULT_ROWS, "grid rows")
	cols           = flag.Int("cols", pkg.DEFAULT_COLS, "grid cols")
	density        = flag.Float64("density", 0.3, "obstacle density")
	seed           = flag.Uint64("seed", 1, "random seed")
	use4Directions = flag.Bool("d4", false, "use 4 directions instead of 8")
	workers        = flag.Int("workers", runtime.NumCPU(), "number of workers")
)

type result struct {
	status  search.Status
	cost    int
	visited int
	steps   int
	elapsed time.Duration
}

type gridResult struct {
	seed    uint64
	results map[string]result
	err     error
}

func runAll(logger *zap.Logger, gridSeed uint64) gridResult {
	rd := rand.New(rand.NewSource(gridSeed))
	opts := search.DefaultOptions(*rows, *cols)
	opts.DirectionCount = da.DirectionCount(*use4Directions)
	opts.Heuristic = search.DefaultHeuristic(opts.DirectionCount)

	grid, err := da.RandomGrid(*rows, *cols, *density, rd, opts.Start, opts.Target)
	if err != nil {
		return gridResult{seed: gridSeed, err: err}
	}

	out := gridResult{seed: gridSeed, results: make(map[string]result)}
	for _, name := range search.Names() {
		e, err := engine.NewEngine(grid.Clone(), name, opts, logger)
		if err != nil {
			return gridResult{seed: gridSeed, err: err}
		}
		start := time.Now()
		status, err := e.Run(context.Background(), nil, nil)
		if err != nil {
			return gridResult{seed: gridSeed, err: err}
		}
		b := e.GetBlackboard()
		out.results[name] = result{
			status:  status,
			cost:    b.PathCost(),
			visited: b.NumberOfVisited(),
			steps:   e.GetSteps(),
			elapsed: time.Since(start),
		}
	}
	return out
}

type summary struct {
	solved     int
	mismatches int
	visited    int
	steps      int
	elapsed    time.Duration
}

func main() {
	flag.Parse()
	logger, err := log.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	seeds := make([]uint64, *numGrids)
	for i := range seeds {
		seeds[i] = *seed + uint64(i)
	}

	quiet := zap.NewNop()
	results := concurrent.Map(*workers, seeds, func(s uint64) gridResult {
		return runAll(quiet, s)
	})

	summaries := make(map[string]*summary)
	for _, name := range search.Names() {
		summaries[name] = &summary{}
	}
	reachable := 0
	for _, gr := range results {
		if gr.err != nil {
			logger.Error("grid failed", zap.Uint64("seed", gr.seed), zap.Error(gr.err))
			continue
		}
		ref := gr.results[search.DIJKSTRA]
		if ref.status == search.SUCCESS {
			reachable++
		}
		for name, r := range gr.results {
			s := summaries[name]
			s.visited += r.visited
			s.steps += r.steps
			s.elapsed += r.elapsed
			if r.status == search.SUCCESS {
				s.solved++
			}
			if r.status != ref.status || (r.status == search.SUCCESS && r.cost != ref.cost) {
				s.mismatches++
				logger.Debug("result differs from dijkstra", zap.Uint64("seed", gr.seed),
					zap.String("algorithm", name), zap.Int("cost", r.cost), zap.Int("dijkstra_cost", ref.cost))
			}
		}
	}

	logger.Info("compared algorithms", zap.Int("grids", *numGrids), zap.Int("reachable", reachable),
		zap.Int("rows", *rows), zap.Int("cols", *cols), zap.Float64("density", *density))

	names := search.Names()
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "algorithm\tsolved\tnon-optimal\tavg visited\tavg steps\tavg time")
	for _, name := range names {
		s := summaries[name]
		n := len(results)
		if n == 0 {
			n = 1
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%.1f\t%v\n", name, s.solved, s.mismatches,
			float64(s.visited)/float64(n), float64(s.steps)/float64(n), s.elapsed/time.Duration(n))
	}
	w.Flush()
}
