package pkg

const (
	// horizontal & vertical move cost
	COST_UNIT = 10
	// diagonal move cost (sqrt(2) * COST_UNIT, rounded)
	DIAGONAL_COST = 14

	INF_COST = 0x3f3f3f3f

	NOT_EXPLORING = -1
	NO_DIRECTION  = -1

	DEFAULT_ROWS = 12
	DEFAULT_COLS = 15

	DEFAULT_DELAY_MS         = 50
	DEFAULT_HEURISTIC_WEIGHT = 1
)

const (
	DEBUG = false
)
