// Package destruction owns the authoritative set of walls for a match and
// applies slice damage, producing the WallDamaged/WallDestroyed events the
// orchestrator forwards to transport.
package destruction

import (
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
)

// Store holds every wall in a match's layout. It is owned exclusively by the
// orchestrator; callers elsewhere receive read-only views.
type Store struct {
	walls map[string]*entities.Wall
}

// NewStore creates an empty wall store.
func NewStore() *Store {
	return &Store{walls: make(map[string]*entities.Wall)}
}

// Add registers a wall in the store.
func (s *Store) Add(w *entities.Wall) {
	s.walls[w.ID] = w
}

// Get returns the wall with the given id, or nil (TransientAbsence) if unknown.
func (s *Store) Get(id string) *entities.Wall {
	return s.walls[id]
}

// All returns every wall in the store. The slice is a new allocation per
// call; mutate the returned *entities.Wall values in place, not the slice.
func (s *Store) All() []*entities.Wall {
	out := make([]*entities.Wall, 0, len(s.walls))
	for _, w := range s.walls {
		out = append(out, w)
	}
	return out
}

// VisionThreshold returns the material vision threshold for a wall.
func VisionThreshold(w *entities.Wall) float64 {
	return game.MaterialVisionThreshold[w.Material]
}

// ApplyDamage damages the slice of wall id containing point p and returns
// the WallDamaged event (and a WallDestroyed follow-up if the slice just
// reached zero health). Operating on an unknown wall id is a TransientAbsence
// no-op: both returned events are the zero value and ok is false.
func (s *Store) ApplyDamage(wallID string, p entities.Vector2D, damage int) (events []models.Event, ok bool) {
	w := s.walls[wallID]
	if w == nil {
		return nil, false
	}
	idx := w.SliceIndexAt(p)
	newHealth, alreadyDestroyed, newlyDestroyed := w.ApplyDamage(idx, damage)
	if alreadyDestroyed {
		// Damaging an already-destroyed slice produces no events (idempotence).
		return nil, true
	}

	now := time.Now().UnixMilli()
	events = append(events, models.Event{
		Kind:           models.EventWallDamaged,
		Timestamp:      now,
		WallID:         wallID,
		SliceIndex:     idx,
		NewSliceHealth: newHealth,
		IsDestroyed:    newlyDestroyed,
	})
	if newlyDestroyed {
		events = append(events, models.Event{
			Kind:       models.EventWallDestroyed,
			Timestamp:  now,
			WallID:     wallID,
			SliceIndex: idx,
		})
	}
	return events, true
}

// ApplyDamageAt damages a specific slice index directly (used by explosion
// resolution, which already knows which slices fall within radius).
func (s *Store) ApplyDamageAt(wallID string, sliceIndex int, damage int) (events []models.Event, ok bool) {
	w := s.walls[wallID]
	if w == nil || sliceIndex < 0 || sliceIndex >= entities.WallSliceCount {
		return nil, false
	}
	newHealth, alreadyDestroyed, newlyDestroyed := w.ApplyDamage(sliceIndex, damage)
	if alreadyDestroyed {
		return nil, true
	}

	now := time.Now().UnixMilli()
	events = append(events, models.Event{
		Kind:           models.EventWallDamaged,
		Timestamp:      now,
		WallID:         wallID,
		SliceIndex:     sliceIndex,
		NewSliceHealth: newHealth,
		IsDestroyed:    newlyDestroyed,
	})
	if newlyDestroyed {
		events = append(events, models.Event{
			Kind:       models.EventWallDestroyed,
			Timestamp:  now,
			WallID:     wallID,
			SliceIndex: sliceIndex,
		})
	}
	return events, true
}

// BlocksProjectileAt reports whether any wall's slice at point p currently
// blocks projectiles/hitscan (health > 0), and if so returns that wall's id.
func (s *Store) BlocksProjectileAt(p entities.Vector2D) (wallID string, blocked bool) {
	for id, w := range s.walls {
		if !w.ContainsPoint(p) {
			continue
		}
		idx := w.SliceIndexAt(p)
		if w.IsSliceOpaqueToProjectile(idx) {
			return id, true
		}
	}
	return "", false
}

// BlocksPlayerAt reports whether a player of the given radius centered at p
// overlaps any non-destroyed wall slice. Each slice's bounds are expanded by
// radius independently, so a player can slide past a destroyed slice even
// while its neighbor is still intact.
func (s *Store) BlocksPlayerAt(p entities.Vector2D, radius float64) bool {
	for _, w := range s.walls {
		for i := 0; i < entities.WallSliceCount; i++ {
			if !w.IsSliceOpaqueToProjectile(i) {
				continue
			}
			minX, minY, maxX, maxY := w.SliceBounds(i)
			minX -= radius
			minY -= radius
			maxX += radius
			maxY += radius
			if p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY {
				return true
			}
		}
	}
	return false
}

// WallsWithinRadius returns every (wallID, sliceIndex) pair whose slice
// rectangle intersects the disk of radius around center, for explosion
// area-damage resolution. Distance is measured from center to the nearest
// point of the slice.
func (s *Store) WallsWithinRadius(center entities.Vector2D, radius float64) []SliceHit {
	var hits []SliceHit
	for id, w := range s.walls {
		for i := 0; i < entities.WallSliceCount; i++ {
			minX, minY, maxX, maxY := w.SliceBounds(i)
			nx, ny := center.X, center.Y
			if nx < minX {
				nx = minX
			} else if nx > maxX {
				nx = maxX
			}
			if ny < minY {
				ny = minY
			} else if ny > maxY {
				ny = maxY
			}
			d := entities.Vector2D{X: nx, Y: ny}.Distance(center)
			if d <= radius {
				hits = append(hits, SliceHit{WallID: id, SliceIndex: i, Distance: d})
			}
		}
	}
	return hits
}

// SliceHit identifies one wall slice and its distance from an explosion center.
type SliceHit struct {
	WallID     string
	SliceIndex int
	Distance   float64
}
