package engine

import "fmt"

// Grid is a fixed-size, row-major board of cells
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid creates a board with every cell empty
func NewGrid(width, height int) (*Grid, error) {
	if width < MinBoardSize || height < MinBoardSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBoard, width, height)
	}

	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = EmptyCell()
	}

	return &Grid{
		width:  width,
		height: height,
		cells:  cells,
	}, nil
}

// NewGridWithAgents creates a board and marks each agent's starting cell
func NewGridWithAgents(width, height int, agents []*Agent) (*Grid, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}

	for _, a := range agents {
		if err := g.SetOccupied(a.Position, a.ID); err != nil {
			return nil, fmt.Errorf("agent %s start: %w", a.ID, err)
		}
	}

	return g, nil
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// InBounds checks whether p addresses a cell on the board
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Cell returns the cell at p
func (g *Grid) Cell(p Position) (Cell, error) {
	if !g.InBounds(p) {
		return Cell{}, fmt.Errorf("%w: (%d,%d) on %dx%d", ErrOutOfBounds, p.X, p.Y, g.width, g.height)
	}
	return g.cells[g.index(p)], nil
}

// SetOccupied marks p as occupied by owner, replacing any previous owner
func (g *Grid) SetOccupied(p Position, owner string) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d", ErrOutOfBounds, p.X, p.Y, g.width, g.height)
	}
	g.cells[g.index(p)] = OccupiedBy(owner)
	return nil
}

// OccupiedCount returns the number of cells carrying a trail
func (g *Grid) OccupiedCount() int {
	count := 0
	for _, c := range g.cells {
		if c.IsOccupied() {
			count++
		}
	}
	return count
}

// Rows returns a deep copy of the board indexed [y][x]
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]Cell, g.width)
		copy(row, g.cells[y*g.width:(y+1)*g.width])
		rows[y] = row
	}
	return rows
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// loadRows replaces the cell contents from rows indexed [y][x]
func (g *Grid) loadRows(rows [][]Cell) error {
	if len(rows) != g.height {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, g.height, len(rows))
	}
	for y, row := range rows {
		if len(row) != g.width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidBoard, y, len(row), g.width)
		}
	}
	for y, row := range rows {
		for x, c := range row {
			if c.State != Occupied {
				c = EmptyCell()
			}
			g.cells[y*g.width+x] = c
		}
	}
	return nil
}

func (g *Grid) index(p Position) int {
	return p.Y*g.width + p.X
}
