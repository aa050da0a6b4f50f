package mapparser

import (
	"path/filepath"
	"strings"
	"testing"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		rows, cols int
		obstacles  []da.Cell
		wantErr    bool
	}{
		{
			name:      "ok",
			input:     "0 1 0\n0 0 0\n1 0 0\n",
			rows:      3,
			cols:      3,
			obstacles: []da.Cell{da.NewCell(0, 1), da.NewCell(2, 0)},
		},
		{
			name:      "inferred dimensions and crlf",
			input:     "0 0 0 1\r\n1 0 0 0\r\n\n\n",
			obstacles: []da.Cell{da.NewCell(0, 3), da.NewCell(1, 0)},
		},
		{
			name:    "too many lines",
			input:   "0 0\n0 0\n0 0\n",
			rows:    2,
			cols:    2,
			wantErr: true,
		},
		{
			name:    "too few lines",
			input:   "0 0\n",
			rows:    2,
			cols:    2,
			wantErr: true,
		},
		{
			name:    "short line",
			input:   "0 0\n0\n",
			rows:    2,
			cols:    2,
			wantErr: true,
		},
		{
			name:    "bad value",
			input:   "0 2\n0 0\n",
			rows:    2,
			cols:    2,
			wantErr: true,
		},
		{
			name:    "bad separator",
			input:   "0,1\n0 0\n",
			rows:    2,
			cols:    2,
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "\n",
			wantErr: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Parse(strings.NewReader(tt.input), tt.rows, tt.cols)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedMap)
				assert.Equal(t, util.ErrBadParamInput, util.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.obstacles), grid.NumberOfObstacles())
			for _, c := range tt.obstacles {
				assert.True(t, grid.IsObstacle(c.Row, c.Col), c.String())
			}
		})
	}
}

func TestWrite(t *testing.T) {
	grid, err := da.NewGridFromMatrix([][]int{{0, 1}, {1, 0}})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Write(&sb, grid))
	assert.Equal(t, "0 1\n1 0\n", sb.String())
}

func TestSaveAndLoad(t *testing.T) {
	grid, err := da.NewGridFromMatrix([][]int{
		{0, 0, 1, 0, 0},
		{0, 1, 1, 0, 0},
		{0, 0, 0, 0, 1},
	})
	require.NoError(t, err)

	p := NewMapParser(nil)
	for _, name := range []string{"map.txt", "map.txt.bz2"} {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), name)
			require.NoError(t, p.SaveMap(filename, grid))

			loaded, err := p.LoadMap(filename, 3, 5)
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				for j := 0; j < 5; j++ {
					assert.Equal(t, grid.IsObstacle(i, j), loaded.IsObstacle(i, j))
				}
			}

			_, err = p.LoadMap(filename, 4, 5)
			assert.ErrorIs(t, err, ErrMalformedMap)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewMapParser(nil).LoadMap(filepath.Join(t.TempDir(), "nope.txt"), 0, 0)
	assert.Error(t, err)
}
