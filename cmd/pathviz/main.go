package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/http"
	"github.com/lintang-b-s/Pathviz/pkg/http/usecases"
	log "github.com/lintang-b-s/Pathviz/pkg/logger"
	"github.com/lintang-b-s/Pathviz/pkg/mapparser"
	"github.com/lintang-b-s/Pathviz/pkg/render"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	mapFile             = flag.String("map", "map.txt", "map file, rows of 0/1 separated by spaces (.bz2 allowed)")
	algorithm           = flag.String("algorithm", search.DIJKSTRA, "one of "+strings.Join(search.Names(), ", "))
	start               = flag.String("start", "0,0", "start point row,col")
	target              = flag.String("target", "", "target point row,col, defaults to the bottom right corner")
	use4Directions      = flag.Bool("d4", false, "use 4 directions instead of 8")
	heuristicWeight     = flag.Int("astar_heuristic_weight", pkg.DEFAULT_HEURISTIC_WEIGHT, "heuristic weight of astar, lpastar and astar-bi")
	heuristicMethod     = flag.String("astar_heuristic_method", "", "manhattan or euclidean, defaults to manhattan for 4 directions and euclidean for 8")
	delayMs             = flag.Int("delay_ms", pkg.DEFAULT_DELAY_MS, "milliseconds between two steps, 0 runs at full speed")
	enableScreenshot    = flag.Bool("enable_screenshot", false, "save a png of every step")
	screenshotDirectory = flag.String("screenshot_directory", "screenshots", "directory of the step pngs")
	toggleCells         = flag.String("toggle", "", "cells row,col separated by ';' toggled after the first search, then searched again")
	newStart            = flag.String("new_start", "", "start point moved to after the first search, then searched again")
	serve               = flag.Bool("serve", false, "run the visualizer API server instead of a single search")
	configDir           = flag.String("config", "./data", "directory of config.yaml")
	logLevel            = flag.String("log_level", "", "debug, info, warn or error, overrides LOG_LEVEL")
)

func main() {
	flag.Parse()

	if err := util.ReadConfig(*configDir); err != nil {
		panic(err)
	}
	level := viper.GetString("LOG_LEVEL")
	if *logLevel != "" {
		level = *logLevel
	}
	logger, err := log.NewWithLevel(level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *serve {
		runServer(logger)
		return
	}

	if err := runSearch(logger); err != nil {
		logger.Error("search failed", zap.Error(err))
		os.Exit(1)
	}
}

func runServer(logger *zap.Logger) {
	sessionService, err := usecases.NewSessionService(logger, viper.GetInt("MAX_SESSIONS"),
		render.NewRenderer(render.DEFAULT_CELL_SIZE), viper.GetDuration("STREAM_DELAY"))
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	api := http.NewServer(logger)
	if _, err := api.Use(ctx, logger, true, sessionService); err != nil {
		panic(err)
	}

	signal := http.GracefulShutdown()
	logger.Info("Pathviz server stopping", zap.String("signal", signal.String()))
	cancel()
	if err := api.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

func parseCell(s string) (da.Cell, error) {
	row, col, err := util.ParsePoint(s)
	if err != nil {
		return da.Cell{}, err
	}
	return da.NewCell(row, col), nil
}

func buildOptions(grid *da.Grid) (search.Options, error) {
	opts := search.DefaultOptions(grid.Rows(), grid.Cols())
	opts.DirectionCount = da.DirectionCount(*use4Directions)
	opts.HeuristicWeight = *heuristicWeight

	var err error
	if opts.Heuristic, err = search.ParseHeuristic(*heuristicMethod, opts.DirectionCount); err != nil {
		return opts, err
	}
	if opts.Start, err = parseCell(*start); err != nil {
		return opts, err
	}
	if *target != "" {
		if opts.Target, err = parseCell(*target); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func runSearch(logger *zap.Logger) error {
	grid, err := mapparser.NewMapParser(logger).LoadMap(*mapFile, viper.GetInt("GRID_ROWS"), viper.GetInt("GRID_COLS"))
	if err != nil {
		return err
	}
	opts, err := buildOptions(grid)
	if err != nil {
		return err
	}
	logger.Info("directions", zap.Int("count", opts.DirectionCount))

	e, err := engine.NewEngine(grid, *algorithm, opts, logger)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if *delayMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(*delayMs)*time.Millisecond), 1)
	}

	renderer := render.NewRenderer(render.DEFAULT_CELL_SIZE)
	if *enableScreenshot {
		if err := os.MkdirAll(*screenshotDirectory, 0o755); err != nil {
			return err
		}
	}
	onStep := func(search.Status) error {
		if !*enableScreenshot {
			return nil
		}
		snap := e.Snapshot()
		filename, err := renderer.SaveStep(*screenshotDirectory, &snap)
		if err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
			return nil
		}
		logger.Debug("screenshot saved", zap.String("file", filename))
		return nil
	}

	ctx := context.Background()
	if err := searchAndReport(ctx, e, limiter, onStep, logger); err != nil {
		return err
	}

	if *toggleCells != "" {
		cells := make([]da.Cell, 0)
		for _, s := range strings.Split(*toggleCells, ";") {
			c, err := parseCell(s)
			if err != nil {
				return err
			}
			cells = append(cells, c)
		}
		for _, c := range cells {
			if err := e.ToggleObstacle(c); err != nil {
				return err
			}
		}
		if err := searchAndReport(ctx, e, limiter, onStep, logger); err != nil {
			return err
		}
	}

	if *newStart != "" {
		c, err := parseCell(*newStart)
		if err != nil {
			return err
		}
		if err := e.ChangeStart(c); err != nil {
			return err
		}
		if err := searchAndReport(ctx, e, limiter, onStep, logger); err != nil {
			return err
		}
	}
	return nil
}

func searchAndReport(ctx context.Context, e *engine.Engine, limiter *rate.Limiter, onStep func(search.Status) error,
	logger *zap.Logger) error {
	before := e.GetSteps()
	status, err := e.Run(ctx, limiter, onStep)
	if err != nil {
		return err
	}
	b := e.GetBlackboard()
	logger.Info("search done",
		zap.String("algorithm", e.GetAlgorithmName()),
		zap.String("status", status.String()),
		zap.Int("steps", e.GetSteps()-before),
		zap.Int("visited", b.NumberOfVisited()),
		zap.Int("path_cost", b.PathCost()),
		zap.Int("path_length", len(b.Path)),
		zap.String("path", usecases.EncodePath(b.Path)))
	return nil
}
