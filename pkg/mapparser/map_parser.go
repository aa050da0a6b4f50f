package mapparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrMalformedMap = errors.New("malformed map file")
)

// MapParser reads and writes grid maps: one line per row, each cell is 0 (free) or 1
// (obstacle), cells are separated by a single space. Files ending with .bz2 are bzip2
// compressed.
type MapParser struct {
	logger *zap.Logger
}

func NewMapParser(logger *zap.Logger) *MapParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapParser{logger: logger}
}

func isCompressed(filename string) bool {
	return strings.HasSuffix(filename, ".bz2")
}

// LoadMap reads a map with exactly rows lines of cols values. rows or cols <= 0
// take the dimension from the file.
func (p *MapParser) LoadMap(filename string, rows, cols int) (*da.Grid, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(filename) {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}

	grid, err := Parse(r, rows, cols)
	if err != nil {
		p.logger.Error("failed to load map", zap.String("file", filename), zap.Error(err))
		return nil, err
	}
	p.logger.Info("map loaded", zap.String("file", filename),
		zap.Int("rows", grid.Rows()), zap.Int("cols", grid.Cols()),
		zap.Int("obstacles", grid.NumberOfObstacles()))
	return grid, nil
}

// SaveMap writes grid in the same format LoadMap reads.
func (p *MapParser) SaveMap(filename string, grid *da.Grid) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if !isCompressed(filename) {
		return Write(f, grid)
	}

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	if err := Write(bz, grid); err != nil {
		bz.Close()
		return err
	}
	return bz.Close()
}

func malformed(format string, a ...interface{}) error {
	msg := fmt.Sprintf(format, a...)
	return util.WrapErrorf(ErrMalformedMap, util.ErrBadParamInput, "%v: %s", ErrMalformedMap, msg)
}

// Parse reads a map from r. Trailing empty lines are ignored.
func Parse(r io.Reader, rows, cols int) (*da.Grid, error) {
	sc := bufio.NewScanner(r)
	lines := make([]string, 0, max(rows, 0))
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 {
		return nil, malformed("map is empty")
	}
	if rows <= 0 {
		rows = len(lines)
	}
	if cols <= 0 {
		cols = (len(lines[0]) + 1) / 2
	}
	if len(lines) != rows {
		return nil, malformed("map must have exactly %d lines, got %d", rows, len(lines))
	}

	m := make([][]int, rows)
	for i, line := range lines {
		// values plus the separating spaces
		if len(line) != cols+cols-1 {
			return nil, malformed("line %d must have %d values of 0 or 1, got %d characters (spaces included)",
				i, cols, len(line))
		}
		m[i] = make([]int, cols)
		for j := 0; j < cols; j++ {
			ch := line[2*j]
			if ch != '0' && ch != '1' {
				return nil, malformed("line %d: every value must be 0 or 1, found %q", i, ch)
			}
			if j > 0 && line[2*j-1] != ' ' {
				return nil, malformed("line %d: values must be separated by a single space", i)
			}
			m[i][j] = int(ch - '0')
		}
	}
	return da.NewGridFromMatrix(m)
}

// Write writes grid to w, one row per line.
func Write(w io.Writer, grid *da.Grid) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < grid.Rows(); i++ {
		for j := 0; j < grid.Cols(); j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			if grid.IsObstacle(i, j) {
				bw.WriteByte('1')
			} else {
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
