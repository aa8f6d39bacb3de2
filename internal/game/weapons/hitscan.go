package weapons

import (
	"math"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
)

// hitscanStep is the march increment used to find the closest opaque
// intersection along a hitscan ray. Small relative to player/wall dimensions
// so a fast-moving ray can't tunnel through a slice.
const hitscanStep = 4.0

// HitscanResult is the outcome of resolving one hitscan shot.
type HitscanResult struct {
	Hit            bool
	TargetType     models.TargetType
	TargetID       string
	WallSliceIndex int
	Position       entities.Vector2D
	Distance       float64
	Damage         int
}

// ResolveHitscan casts a ray from origin along direction (radians) out to
// stats.Range, stopping at the first opaque wall slice or living player
// other than shooterID. A wall slice is opaque to a hitscan whenever it
// blocks any projectile, independent of its vision transparency. Damage
// falls off linearly per game.CalculateHitscanDamage.
func ResolveHitscan(
	origin entities.Vector2D,
	direction float64,
	stats game.WeaponStats,
	walls *destruction.Store,
	players map[string]*entities.Player,
	shooterID string,
) HitscanResult {
	dir := entities.Vector2D{X: math.Cos(direction), Y: math.Sin(direction)}

	for traveled := 0.0; traveled <= stats.Range; traveled += hitscanStep {
		p := origin.Add(dir.Multiply(traveled))

		if id, blocked := walls.BlocksProjectileAt(p); blocked {
			w := walls.Get(id)
			idx := w.SliceIndexAt(p)
			return HitscanResult{
				Hit:            true,
				TargetType:     models.TargetWall,
				TargetID:       id,
				WallSliceIndex: idx,
				Position:       p,
				Distance:       traveled,
				Damage:         game.CalculateHitscanDamage(stats, traveled),
			}
		}

		for _, pl := range players {
			if pl.ID == shooterID || !pl.IsAlive {
				continue
			}
			if p.Distance(pl.Position) <= game.PlayerRadius {
				return HitscanResult{
					Hit:        true,
					TargetType: models.TargetPlayer,
					TargetID:   pl.ID,
					Position:   p,
					Distance:   traveled,
					Damage:     game.CalculateHitscanDamage(stats, traveled),
				}
			}
		}
	}

	return HitscanResult{Hit: false}
}
