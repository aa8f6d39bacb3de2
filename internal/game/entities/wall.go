package entities

// WallMaterial represents the material a wall (and each of its slices) is made of.
// Material drives the vision-transparency threshold applied in game.MaterialVisionThreshold.
type WallMaterial string

const (
	MaterialConcrete WallMaterial = "concrete"
	MaterialWood     WallMaterial = "wood"
	MaterialMetal    WallMaterial = "metal"
	MaterialGlass    WallMaterial = "glass"
)

// WallSliceCount is the fixed number of destructible slices per wall.
const WallSliceCount = 5

// WallSlice is one of a wall's five destructible segments.
type WallSlice struct {
	Health    int  `json:"health"`
	Destroyed bool `json:"destroyed"`
}

// Wall represents a destructible rectangle divided into 5 slices along its
// long axis. Orientation is derived from the rectangle's aspect ratio: a
// wall is horizontal iff Width > Height.
type Wall struct {
	ID         string       `json:"id"`
	Position   Vector2D     `json:"position"` // top-left corner
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Material   WallMaterial `json:"material"`
	MaxHealth  int          `json:"maxHealth"`
	Slices     [WallSliceCount]WallSlice `json:"slices"`
}

// NewWall creates a wall with all slices at full health.
func NewWall(id string, position Vector2D, width, height float64, material WallMaterial, maxHealth int) *Wall {
	w := &Wall{
		ID:        id,
		Position:  position,
		Width:     width,
		Height:    height,
		Material:  material,
		MaxHealth: maxHealth,
	}
	for i := range w.Slices {
		w.Slices[i] = WallSlice{Health: maxHealth, Destroyed: false}
	}
	return w
}

// IsHorizontal reports whether the wall's long axis runs along X.
func (w *Wall) IsHorizontal() bool {
	return w.Width > w.Height
}

// LongAxisExtent returns the dimension along the wall's long axis.
func (w *Wall) LongAxisExtent() float64 {
	if w.IsHorizontal() {
		return w.Width
	}
	return w.Height
}

// LongAxisOrigin returns the starting coordinate of the long axis.
func (w *Wall) LongAxisOrigin() float64 {
	if w.IsHorizontal() {
		return w.Position.X
	}
	return w.Position.Y
}

// SliceBoundary returns the position along the long axis of boundary i,
// for i in [0, WallSliceCount].
func (w *Wall) SliceBoundary(i int) float64 {
	extent := w.LongAxisExtent()
	origin := w.LongAxisOrigin()
	return origin + float64(i)*extent/float64(WallSliceCount)
}

// SliceIndexAt returns the slice index (clamped to [0, WallSliceCount-1]) that
// contains the given world point along the wall's long axis.
func (w *Wall) SliceIndexAt(point Vector2D) int {
	origin := w.LongAxisOrigin()
	extent := w.LongAxisExtent()
	var coord float64
	if w.IsHorizontal() {
		coord = point.X
	} else {
		coord = point.Y
	}
	idx := int((coord - origin) * float64(WallSliceCount) / extent)
	if idx < 0 {
		idx = 0
	}
	if idx > WallSliceCount-1 {
		idx = WallSliceCount - 1
	}
	return idx
}

// SliceBounds returns the axis-aligned rectangle (minX, minY, maxX, maxY)
// occupied by slice i.
func (w *Wall) SliceBounds(i int) (minX, minY, maxX, maxY float64) {
	lo := w.SliceBoundary(i)
	hi := w.SliceBoundary(i + 1)
	if w.IsHorizontal() {
		return lo, w.Position.Y, hi, w.Position.Y + w.Height
	}
	return w.Position.X, lo, w.Position.X + w.Width, hi
}

// IsSliceOpaqueToVision reports whether slice i currently blocks vision,
// given the material's vision threshold (the fraction of max health below
// which the slice transmits light; see game.MaterialVisionThreshold). A
// slice transmits vision unconditionally once destroyed.
func (w *Wall) IsSliceOpaqueToVision(i int, materialThreshold float64) bool {
	s := w.Slices[i]
	if s.Health <= 0 {
		return false
	}
	if w.MaxHealth <= 0 {
		return true
	}
	fraction := float64(s.Health) / float64(w.MaxHealth)
	return fraction >= materialThreshold
}

// IsSliceOpaqueToProjectile reports whether slice i blocks hitscan rays and
// projectiles: any slice with health > 0 blocks both.
func (w *Wall) IsSliceOpaqueToProjectile(i int) bool {
	return w.Slices[i].Health > 0
}

// ApplyDamage clamps slice i's health to >= 0 and marks it destroyed once it
// reaches 0. Returns (newHealth, wasAlreadyDestroyed, newlyDestroyed).
func (w *Wall) ApplyDamage(i int, damage int) (newHealth int, alreadyDestroyed bool, newlyDestroyed bool) {
	s := &w.Slices[i]
	if s.Destroyed {
		return s.Health, true, false
	}
	s.Health -= damage
	if s.Health <= 0 {
		s.Health = 0
		s.Destroyed = true
		newlyDestroyed = true
	}
	return s.Health, false, newlyDestroyed
}

// IntactSpan returns the axis-aligned bounding rectangle running from the
// wall's first to its last intact (vision-opaque) slice, bridging any
// destroyed slices between them, and whether any slice is intact. Neither
// the destruction store nor the visibility engine calls it: the store tests
// each slice's own bounds and the visibility engine uses IntactSegments.
func (w *Wall) IntactSpan(materialThreshold float64) (minX, minY, maxX, maxY float64, ok bool) {
	firstIntact, lastIntact := -1, -1
	for i := 0; i < WallSliceCount; i++ {
		if w.IsSliceOpaqueToVision(i, materialThreshold) {
			if firstIntact == -1 {
				firstIntact = i
			}
			lastIntact = i
		}
	}
	if firstIntact == -1 {
		return 0, 0, 0, 0, false
	}

	loFirst := w.SliceBoundary(firstIntact)
	hiLast := w.SliceBoundary(lastIntact + 1)
	if w.IsHorizontal() {
		return loFirst, w.Position.Y, hiLast, w.Position.Y + w.Height, true
	}
	return w.Position.X, loFirst, w.Position.X + w.Width, hiLast, true
}

// IntactSegments returns the bounding rectangles of every maximal run of
// contiguous intact slices. Unlike IntactSpan (which bridges gaps between
// non-contiguous intact runs), this preserves the internal corners the
// visibility engine needs at each destroyed<->intact boundary.
func (w *Wall) IntactSegments(materialThreshold float64) [][4]float64 {
	segments := make([][4]float64, 0, WallSliceCount)
	start := -1
	for i := 0; i <= WallSliceCount; i++ {
		intact := i < WallSliceCount && w.IsSliceOpaqueToVision(i, materialThreshold)
		if intact && start == -1 {
			start = i
		}
		if !intact && start != -1 {
			loA := w.SliceBoundary(start)
			hiA := w.SliceBoundary(i)
			if w.IsHorizontal() {
				segments = append(segments, [4]float64{loA, w.Position.Y, hiA, w.Position.Y + w.Height})
			} else {
				segments = append(segments, [4]float64{w.Position.X, loA, w.Position.X + w.Width, hiA})
			}
			start = -1
		}
	}
	return segments
}

// DestructionMask returns a 0/1 byte per slice (1 meaning destroyed), the
// wire representation used in the outbound Snapshot (see models package).
func (w *Wall) DestructionMask() [WallSliceCount]uint8 {
	var mask [WallSliceCount]uint8
	for i, s := range w.Slices {
		if s.Destroyed {
			mask[i] = 1
		}
	}
	return mask
}

// ContainsPoint reports whether a point lies within the wall's full rectangle
// (ignoring destruction), used for coarse spatial pruning.
func (w *Wall) ContainsPoint(p Vector2D) bool {
	return p.X >= w.Position.X && p.X <= w.Position.X+w.Width &&
		p.Y >= w.Position.Y && p.Y <= w.Position.Y+w.Height
}
