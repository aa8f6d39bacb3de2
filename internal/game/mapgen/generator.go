// Package mapgen procedurally lays out a match's destructible walls,
// clustering them for a natural look and validating that the result leaves
// the arena traversable before handing it to the match.
package mapgen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
)

// GridCellSize is the flood-fill grid resolution: smaller cells are more
// precise but slower to validate.
const GridCellSize = 50.0

var wallMaterials = []entities.WallMaterial{
	entities.MaterialConcrete,
	entities.MaterialWood,
	entities.MaterialMetal,
	entities.MaterialGlass,
}

// MapGenerator lays out a procedural wall arrangement for one match.
type MapGenerator struct {
	Width      float64
	Height     float64
	Walls      []*entities.Wall
	GridWidth  int
	GridHeight int

	seq int
}

// NewMapGenerator creates a generator for an arena of the given dimensions.
func NewMapGenerator(width, height float64) *MapGenerator {
	return &MapGenerator{
		Width:      width,
		Height:     height,
		Walls:      make([]*entities.Wall, 0),
		GridWidth:  int(math.Ceil(width / GridCellSize)),
		GridHeight: int(math.Ceil(height / GridCellSize)),
	}
}

// GenerateMap lays out walls at the given density (fraction of arena area
// targeted for wall coverage) and validates connectivity, retrying at a
// lower density if too much of the arena ends up unreachable.
func (mg *MapGenerator) GenerateMap(wallDensity float64) error {
	mg.Walls = make([]*entities.Wall, 0)

	totalArea := mg.Width * mg.Height
	targetWallArea := totalArea * wallDensity
	avgWallArea := ((game.WallMinSize + game.WallMaxSize) / 2) * game.WallThickness
	targetWallCount := int(targetWallArea / avgWallArea)

	mg.generateWallClusters(targetWallCount)

	if !mg.validateConnectivity(0.95) {
		if wallDensity < 0.02 {
			return fmt.Errorf("mapgen: cannot reach target connectivity even at minimal density")
		}
		return mg.GenerateMap(wallDensity * 0.9)
	}

	return nil
}

// generateWallClusters scatters wall clusters around random centers, the
// same cluster-then-scatter shape as a dense obstacle layout, but each
// placement becomes a single destructible, material-tagged wall.
func (mg *MapGenerator) generateWallClusters(targetCount int) {
	clustersCount := 15 + rand.Intn(10) // 15-25 clusters
	wallsPerCluster := targetCount / clustersCount
	if wallsPerCluster < 1 {
		wallsPerCluster = 1
	}

	for i := 0; i < clustersCount; i++ {
		clusterX := rand.Float64() * mg.Width
		clusterY := rand.Float64() * mg.Height
		clusterRadius := 200.0 + rand.Float64()*300.0

		for j := 0; j < wallsPerCluster; j++ {
			angle := rand.Float64() * 2 * math.Pi
			distance := rand.Float64() * clusterRadius
			x := clusterX + math.Cos(angle)*distance
			y := clusterY + math.Sin(angle)*distance

			length := game.WallMinSize + rand.Float64()*(game.WallMaxSize-game.WallMinSize)
			horizontal := rand.Intn(2) == 0
			width, height := game.WallThickness, length
			if horizontal {
				width, height = length, game.WallThickness
			}

			if x < width/2 || x > mg.Width-width/2 || y < height/2 || y > mg.Height-height/2 {
				continue
			}

			position := entities.Vector2D{X: x - width/2, Y: y - height/2}
			if !mg.isPositionValid(position, game.WallMinDistance) {
				continue
			}

			material := wallMaterials[rand.Intn(len(wallMaterials))]
			mg.seq++
			wall := entities.NewWall(fmt.Sprintf("wall_%d", mg.seq), position, width, height, material, game.WallMaxHealth)
			mg.Walls = append(mg.Walls, wall)
		}
	}
}

// isPositionValid reports whether position is far enough from every
// existing wall's top-left corner to avoid overlapping clusters.
func (mg *MapGenerator) isPositionValid(position entities.Vector2D, minDistance float64) bool {
	for _, w := range mg.Walls {
		if position.Distance(w.Position) < minDistance {
			return false
		}
	}
	return true
}

// validateConnectivity flood-fills from the arena center over a coarse grid
// with wall footprints marked blocked, requiring at least minReachablePercent
// of cells to be reachable.
func (mg *MapGenerator) validateConnectivity(minReachablePercent float64) bool {
	grid := make([][]bool, mg.GridHeight)
	for i := range grid {
		grid[i] = make([]bool, mg.GridWidth)
	}

	for _, w := range mg.Walls {
		startCellX := int(w.Position.X / GridCellSize)
		startCellY := int(w.Position.Y / GridCellSize)
		endCellX := int((w.Position.X + w.Width) / GridCellSize)
		endCellY := int((w.Position.Y + w.Height) / GridCellSize)

		for y := startCellY; y <= endCellY && y < mg.GridHeight; y++ {
			for x := startCellX; x <= endCellX && x < mg.GridWidth; x++ {
				if x >= 0 && x < mg.GridWidth && y >= 0 && y < mg.GridHeight {
					grid[y][x] = true
				}
			}
		}
	}

	centerX := mg.GridWidth / 2
	centerY := mg.GridHeight / 2

	reachableCells := mg.floodFill(grid, centerX, centerY)
	totalCells := mg.GridWidth * mg.GridHeight
	reachablePercent := float64(reachableCells) / float64(totalCells)

	return reachablePercent >= minReachablePercent
}

// floodFill performs a breadth-first flood fill from (startX, startY) over
// grid, returning the count of cells reached.
func (mg *MapGenerator) floodFill(grid [][]bool, startX, startY int) int {
	if startX < 0 || startX >= mg.GridWidth || startY < 0 || startY >= mg.GridHeight {
		return 0
	}
	if grid[startY][startX] {
		return 0
	}

	count := 0
	queue := []struct{ x, y int }{{startX, startY}}
	grid[startY][startX] = true

	directions := []struct{ dx, dy int }{
		{0, -1},
		{1, 0},
		{0, 1},
		{-1, 0},
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		count++

		for _, dir := range directions {
			nx := current.x + dir.dx
			ny := current.y + dir.dy

			if nx >= 0 && nx < mg.GridWidth && ny >= 0 && ny < mg.GridHeight && !grid[ny][nx] {
				grid[ny][nx] = true
				queue = append(queue, struct{ x, y int }{nx, ny})
			}
		}
	}

	return count
}

// GetWalls returns every wall the generator produced.
func (mg *MapGenerator) GetWalls() []*entities.Wall {
	return mg.Walls
}
