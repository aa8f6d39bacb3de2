package combat

import (
	"fmt"
	"math"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/metrics"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
)

// spawnOffset keeps a freshly created projectile from immediately
// re-colliding with its owner's own hitbox.
const spawnOffset = 4.0

// ProjectileEngine owns every traveling rocket and grenade in a match and
// advances them each tick: movement, wall-slice collision (bounce for
// grenades, terminate for rockets), player collision, and grenade fuse
// tracking. Bullets never reach this engine — hitscan weapons resolve
// instantly via weapons.ResolveHitscan.
type ProjectileEngine struct {
	Projectiles map[string]*entities.Projectile
	seq         int
}

// NewProjectileEngine creates an empty projectile engine.
func NewProjectileEngine() *ProjectileEngine {
	return &ProjectileEngine{Projectiles: make(map[string]*entities.Projectile)}
}

// SpawnRocket creates a rocket traveling along the player's current rotation.
func (pe *ProjectileEngine) SpawnRocket(player *entities.Player, stats game.WeaponStats) *entities.Projectile {
	velocity := entities.Vector2D{
		X: math.Cos(player.Rotation) * stats.ProjectileSpeed,
		Y: math.Sin(player.Rotation) * stats.ProjectileSpeed,
	}
	proj := pe.spawn(entities.ProjectileRocket, player, velocity, stats.BaseDamage, stats.Range, stats.ExplosionRadius)
	return proj
}

// SpawnGrenade creates a grenade thrown at chargeLevel (1..3): both throw
// speed and range budget scale with charge.
func (pe *ProjectileEngine) SpawnGrenade(player *entities.Player, stats game.WeaponStats, chargeLevel int) *entities.Projectile {
	speed := game.GrenadeThrowSpeed(chargeLevel)
	velocity := entities.Vector2D{
		X: math.Cos(player.Rotation) * speed,
		Y: math.Sin(player.Rotation) * speed,
	}
	rangeBudget := game.GrenadeRangeBudget(stats.Range, chargeLevel)
	proj := pe.spawn(entities.ProjectileGrenade, player, velocity, stats.BaseDamage, rangeBudget, stats.ExplosionRadius)
	proj.ChargeLevel = chargeLevel
	return proj
}

func (pe *ProjectileEngine) spawn(kind entities.ProjectileKind, player *entities.Player, velocity entities.Vector2D, damage int, rangeBudget, explosionRadius float64) *entities.Projectile {
	spawnPos := player.Position
	if m := velocity.Magnitude(); m > 0 {
		spawnPos = player.Position.Add(velocity.Normalize().Multiply(game.PlayerRadius + spawnOffset))
	}
	pe.seq++
	id := fmt.Sprintf("proj_%s_%d", player.ID, pe.seq)
	proj := entities.NewProjectile(id, kind, player.ID, spawnPos, velocity, damage, rangeBudget, explosionRadius)
	pe.Projectiles[id] = proj
	metrics.ProjectilesActive.Inc()
	return proj
}

// Explosion describes a pending area-damage event, returned by Advance for
// the orchestrator to resolve against players and walls.
type Explosion struct {
	Position entities.Vector2D
	Radius   float64
	Damage   int
	OwnerID  string
	Kind     entities.ProjectileKind
}

// Advance moves every live projectile by one tick of dt, resolves wall and
// player collisions in that order, and returns the events produced plus any
// explosions the caller must resolve against players and walls.
func (pe *ProjectileEngine) Advance(dt float64, walls *destruction.Store, players map[string]*entities.Player) ([]models.Event, []Explosion) {
	var events []models.Event
	var explosions []Explosion
	now := time.Now().UnixMilli()

	for id, proj := range pe.Projectiles {
		prevPos := proj.Position
		proj.Advance(dt)

		if proj.Kind == entities.ProjectileGrenade && proj.FuseElapsed(game.GrenadeFuseMs*time.Millisecond) {
			explosions = append(explosions, Explosion{Position: proj.Position, Radius: proj.ExplosionRadius, Damage: proj.Damage, OwnerID: proj.OwnerID, Kind: proj.Kind})
			events = append(events, models.Event{Kind: models.EventProjectileExploded, Timestamp: now, ProjectileID: id, Position: proj.Position, Radius: proj.ExplosionRadius})
			pe.remove(id)
			continue
		}

		if wallID, blocked := walls.BlocksProjectileAt(proj.Position); blocked {
			if proj.Kind == entities.ProjectileGrenade {
				bounceOffWall(proj, prevPos, walls.Get(wallID))
				events = append(events, models.Event{Kind: models.EventProjectileUpdated, Timestamp: now, ProjectileID: id, Position: proj.Position})
			} else {
				if proj.ExplosionRadius > 0 {
					explosions = append(explosions, Explosion{Position: proj.Position, Radius: proj.ExplosionRadius, Damage: proj.Damage, OwnerID: proj.OwnerID, Kind: proj.Kind})
					events = append(events, models.Event{Kind: models.EventProjectileExploded, Timestamp: now, ProjectileID: id, Position: proj.Position, Radius: proj.ExplosionRadius})
				} else {
					events = append(events, models.Event{Kind: models.EventWeaponHit, Timestamp: now, PlayerID: proj.OwnerID, Position: proj.Position, TargetType: models.TargetWall, TargetID: wallID})
				}
				pe.remove(id)
				continue
			}
		}

		if proj.HasExceededRange() {
			pe.remove(id)
			continue
		}

		if hitID, died, ok := pe.checkPlayerHit(proj, players); ok {
			events = append(events, models.Event{
				Kind: models.EventPlayerDamaged, Timestamp: now,
				PlayerID: hitID, SourcePlayerID: proj.OwnerID,
				Damage: proj.Damage, DamageType: models.DamageBullet,
				IsKilled: died, Position: proj.Position,
			})
			if died {
				events = append(events, models.Event{Kind: models.EventPlayerKilled, Timestamp: now, PlayerID: hitID, SourcePlayerID: proj.OwnerID})
			}
			if proj.ExplosionRadius > 0 {
				explosions = append(explosions, Explosion{Position: proj.Position, Radius: proj.ExplosionRadius, Damage: proj.Damage, OwnerID: proj.OwnerID, Kind: proj.Kind})
			}
			pe.remove(id)
		}
	}

	return events, explosions
}

// checkPlayerHit tests proj against every living player other than its
// owner. Grenades never detonate on touch (fuse-only), per the grenade
// lifecycle rule that a player standing on a grenade does not trigger it.
func (pe *ProjectileEngine) checkPlayerHit(proj *entities.Projectile, players map[string]*entities.Player) (playerID string, died bool, hit bool) {
	if proj.Kind == entities.ProjectileGrenade {
		return "", false, false
	}
	for _, player := range players {
		if player.ID == proj.OwnerID || !player.IsAlive {
			continue
		}
		if proj.Position.Distance(player.Position) > game.PlayerRadius+game.ProjectileRadius {
			continue
		}
		died := player.TakeDamage(proj.Damage)
		return player.ID, died, true
	}
	return "", false, false
}

// bounceOffWall reflects a grenade's velocity component normal to whichever
// slice edge it crossed, scaled by GrenadeRestitution, and restores its
// pre-collision position so it does not tunnel into the wall.
func bounceOffWall(proj *entities.Projectile, prevPos entities.Vector2D, w *entities.Wall) {
	if w == nil {
		proj.Velocity = proj.Velocity.Multiply(-game.GrenadeRestitution)
		proj.Position = prevPos
		return
	}

	idx := w.SliceIndexAt(proj.Position)
	minX, minY, maxX, maxY := w.SliceBounds(idx)

	hitVerticalFace := prevPos.Y < minY || prevPos.Y > maxY
	hitHorizontalFace := prevPos.X < minX || prevPos.X > maxX

	switch {
	case hitVerticalFace && !hitHorizontalFace:
		proj.Velocity.Y = -proj.Velocity.Y * game.GrenadeRestitution
	case hitHorizontalFace && !hitVerticalFace:
		proj.Velocity.X = -proj.Velocity.X * game.GrenadeRestitution
	default:
		proj.Velocity = proj.Velocity.Multiply(-game.GrenadeRestitution)
	}
	proj.Position = prevPos
}

func (pe *ProjectileEngine) remove(id string) {
	if _, exists := pe.Projectiles[id]; exists {
		metrics.ProjectilesActive.Dec()
	}
	delete(pe.Projectiles, id)
}

// ResolveExplosion applies area damage at e's position to every living
// player within radius (line-of-sight gated against opaque wall slices) and
// every wall slice whose extent intersects the blast disk, returning the
// events produced.
func ResolveExplosion(e Explosion, players map[string]*entities.Player, walls *destruction.Store) []models.Event {
	var events []models.Event
	now := time.Now().UnixMilli()

	events = append(events, models.Event{
		Kind: models.EventExplosionCreated, Timestamp: now,
		SourcePlayerID: e.OwnerID, Position: e.Position, Radius: e.Radius,
	})

	for _, player := range players {
		if !player.IsAlive {
			continue
		}
		dist := player.Position.Distance(e.Position)
		if dist > e.Radius {
			continue
		}
		if explosionBlockedByWall(e.Position, player.Position, walls) {
			continue
		}
		damage := int(float64(e.Damage) * (1 - dist/e.Radius))
		if damage <= 0 {
			continue
		}
		died := player.TakeDamage(damage)
		events = append(events, models.Event{
			Kind: models.EventPlayerDamaged, Timestamp: now,
			PlayerID: player.ID, SourcePlayerID: e.OwnerID,
			Damage: damage, DamageType: models.DamageExplosion,
			NewHealth: player.Health, IsKilled: died, Position: player.Position,
		})
		if died {
			events = append(events, models.Event{Kind: models.EventPlayerKilled, Timestamp: now, PlayerID: player.ID, SourcePlayerID: e.OwnerID})
		}
	}

	for _, hit := range walls.WallsWithinRadius(e.Position, e.Radius) {
		falloff := 1 - hit.Distance/e.Radius
		damage := int(float64(e.Damage) * falloff)
		if damage <= 0 {
			continue
		}
		wallEvents, ok := walls.ApplyDamageAt(hit.WallID, hit.SliceIndex, damage)
		if ok {
			events = append(events, wallEvents...)
		}
	}

	return events
}

// explosionBlockedByWall steps along the segment from origin to target and
// reports whether an opaque wall slice intervenes, matching the step-march
// idiom weapons.ResolveHitscan uses for its own line-of-sight test.
func explosionBlockedByWall(origin, target entities.Vector2D, walls *destruction.Store) bool {
	const step = 4.0
	delta := target.Subtract(origin)
	dist := delta.Magnitude()
	if dist == 0 {
		return false
	}
	dir := delta.Multiply(1 / dist)

	for traveled := step; traveled < dist; traveled += step {
		p := origin.Add(dir.Multiply(traveled))
		if _, blocked := walls.BlocksProjectileAt(p); blocked {
			return true
		}
	}
	return false
}
