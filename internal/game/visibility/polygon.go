// Package visibility computes the polygonal field of view visible from a
// player's position and heading, accounting for partially destroyed wall
// geometry. The ray-vs-rectangle test is the slab method; see DESIGN.md for
// the grounding source.
package visibility

import (
	"math"
	"sort"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
)

// segment is an axis-aligned rectangle contributed by one contiguous run of
// a wall's intact slices.
type segment struct {
	minX, minY, maxX, maxY float64
}

func reduceWalls(walls []*entities.Wall) []segment {
	var segments []segment
	for _, w := range walls {
		threshold := game.MaterialVisionThreshold[w.Material]
		for _, s := range w.IntactSegments(threshold) {
			segments = append(segments, segment{minX: s[0], minY: s[1], maxX: s[2], maxY: s[3]})
		}
	}
	return segments
}

// normalizeAngle wraps a to (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// candidate is one angle to ray-cast, tagged with its signed offset from the
// viewer's heading so the result can be sorted and wrap-around at ±π is
// never compared directly.
type candidate struct {
	angle  float64
	offset float64
}

// Compute returns the ordered polygon vertices visible from viewer facing
// heading (radians), given the view half-angle and distance configured in
// internal/game, against the supplied wall layout. The first vertex is
// always viewer.
func Compute(viewer entities.Vector2D, heading float64, walls []*entities.Wall) []entities.Vector2D {
	alpha := game.ViewConeHalfAngle
	r := game.ViewDistance
	segments := reduceWalls(walls)

	candidates := collectCandidates(viewer, heading, alpha, r, segments)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].offset < candidates[j].offset })

	poly := make([]entities.Vector2D, 0, len(candidates)+1)
	poly = append(poly, viewer)

	var prevHit entities.Vector2D
	var prevOnArc bool
	haveHit := false

	for _, c := range candidates {
		hit, dist := castRay(viewer, c.angle, r, segments)
		onArc := math.Abs(dist-r) < game.ArcHitTolerance

		if haveHit && prevOnArc && onArc {
			poly = appendArcSamples(poly, viewer, heading, r, prevHit, hit)
		}
		poly = appendDeduped(poly, hit)

		prevHit = hit
		prevOnArc = onArc
		haveHit = true
	}

	return poly
}

func collectCandidates(viewer entities.Vector2D, heading, alpha, r float64, segments []segment) []candidate {
	var candidates []candidate

	add := func(angle float64) {
		offset := normalizeAngle(angle - heading)
		if offset < -alpha || offset > alpha {
			return
		}
		candidates = append(candidates, candidate{angle: normalizeAngle(angle), offset: offset})
	}

	// (a) cone boundaries.
	add(heading - alpha)
	add(heading + alpha)

	for _, s := range segments {
		corners := [4]entities.Vector2D{
			{X: s.minX, Y: s.minY}, {X: s.maxX, Y: s.minY},
			{X: s.maxX, Y: s.maxY}, {X: s.minX, Y: s.maxY},
		}
		// (b) corner angles, ±ε.
		for _, corner := range corners {
			if viewer.Distance(corner) > r {
				continue
			}
			angle := math.Atan2(corner.Y-viewer.Y, corner.X-viewer.X)
			add(angle - game.CornerEpsilonRad)
			add(angle + game.CornerEpsilonRad)
		}

		// (c) wall-edge / view-arc intersections.
		edges := [4][2]entities.Vector2D{
			{corners[0], corners[1]}, {corners[1], corners[2]},
			{corners[2], corners[3]}, {corners[3], corners[0]},
		}
		for _, e := range edges {
			for _, p := range segmentCircleIntersections(e[0], e[1], viewer, r) {
				angle := math.Atan2(p.Y-viewer.Y, p.X-viewer.X)
				add(angle)
			}
		}
	}

	return candidates
}

// castRay finds the closest intact-segment intersection along the ray from
// viewer at angle out to maxDist, falling back to the view-distance arc.
func castRay(viewer entities.Vector2D, angle, maxDist float64, segments []segment) (entities.Vector2D, float64) {
	dx, dy := math.Cos(angle), math.Sin(angle)
	closest := maxDist

	for _, s := range segments {
		if t, hit := rayAABBEntryT(viewer.X, viewer.Y, dx, dy, s.minX, s.minY, s.maxX, s.maxY, closest); hit {
			closest = t
		}
	}

	return entities.Vector2D{X: viewer.X + dx*closest, Y: viewer.Y + dy*closest}, closest
}

// rayAABBEntryT returns the smallest t in [0, maxT] at which the ray
// (ox,oy)+t*(dx,dy) enters the axis-aligned box, or false if it never does
// within that range. Adapted from the slab method.
func rayAABBEntryT(ox, oy, dx, dy, minX, minY, maxX, maxY, maxT float64) (float64, bool) {
	tMin, tMax := 0.0, maxT

	if math.Abs(dx) < 1e-12 {
		if ox < minX || ox > maxX {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1, t2 := (minX-ox)*invD, (maxX-ox)*invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if math.Abs(dy) < 1e-12 {
		if oy < minY || oy > maxY {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1, t2 := (minY-oy)*invD, (maxY-oy)*invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMin < 0 {
		return 0, false
	}
	return tMin, true
}

// segmentCircleIntersections returns the points where segment p0->p1 crosses
// the circle of radius r centered at c, if any.
func segmentCircleIntersections(p0, p1, c entities.Vector2D, r float64) []entities.Vector2D {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	fx, fy := p0.X-c.X, p0.Y-c.Y

	a := dx*dx + dy*dy
	if a < 1e-12 {
		return nil
	}
	b := 2 * (fx*dx + fy*dy)
	cc := fx*fx + fy*fy - r*r

	disc := b*b - 4*a*cc
	if disc < 0 {
		return nil
	}
	sqrtDisc := math.Sqrt(disc)
	var out []entities.Vector2D
	for _, t := range [2]float64{(-b - sqrtDisc) / (2 * a), (-b + sqrtDisc) / (2 * a)} {
		if t >= 0 && t <= 1 {
			out = append(out, entities.Vector2D{X: p0.X + t*dx, Y: p0.Y + t*dy})
		}
	}
	return out
}

// appendArcSamples inserts additional points along the view arc between from
// and to so no angular gap between consecutive arc vertices exceeds
// game.ArcSampleStepRad.
func appendArcSamples(poly []entities.Vector2D, viewer entities.Vector2D, heading, r float64, from, to entities.Vector2D) []entities.Vector2D {
	a0 := math.Atan2(from.Y-viewer.Y, from.X-viewer.X)
	a1 := math.Atan2(to.Y-viewer.Y, to.X-viewer.X)
	offset0 := normalizeAngle(a0 - heading)
	offset1 := normalizeAngle(a1 - heading)

	gap := offset1 - offset0
	if math.Abs(gap) <= game.ArcSampleStepRad {
		return poly
	}

	steps := int(math.Ceil(math.Abs(gap) / game.ArcSampleStepRad))
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		offset := offset0 + gap*t
		angle := heading + offset
		p := entities.Vector2D{X: viewer.X + math.Cos(angle)*r, Y: viewer.Y + math.Sin(angle)*r}
		poly = appendDeduped(poly, p)
	}
	return poly
}

// appendDeduped appends p unless it lies within game.CornerDedupeTol of the
// polygon's current last vertex.
func appendDeduped(poly []entities.Vector2D, p entities.Vector2D) []entities.Vector2D {
	if len(poly) > 0 && poly[len(poly)-1].Distance(p) < game.CornerDedupeTol {
		return poly
	}
	return append(poly, p)
}

// Contains reports whether p lies within polygon, using the standard
// even-odd ray-casting rule. Used to scope a snapshot to what one player's
// visibility polygon admits before it is sent over the wire.
func Contains(polygon []entities.Vector2D, p entities.Vector2D) bool {
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}
