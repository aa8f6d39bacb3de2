package entities

import "testing"

func TestNewProjectile(t *testing.T) {
	p := NewProjectile("proj1", ProjectileRocket, "owner1", Vector2D{X: 0, Y: 0}, Vector2D{X: 10, Y: 0}, 100, 500, 140)

	if !p.Alive {
		t.Error("expected new projectile to be alive")
	}
	if p.RangeRemaining != 500 {
		t.Errorf("expected range 500, got %f", p.RangeRemaining)
	}
	if p.ExplosionRadius != 140 {
		t.Errorf("expected explosion radius 140, got %f", p.ExplosionRadius)
	}
}

func TestProjectile_Advance(t *testing.T) {
	p := NewProjectile("proj1", ProjectileBullet, "owner1", Vector2D{X: 0, Y: 0}, Vector2D{X: 10, Y: 0}, 10, 100, 0)

	p.Advance(1.0)

	if p.Position.X != 10 {
		t.Errorf("expected position.X 10, got %f", p.Position.X)
	}
	if p.RangeRemaining != 90 {
		t.Errorf("expected range remaining 90, got %f", p.RangeRemaining)
	}
}

func TestProjectile_HasExceededRange(t *testing.T) {
	p := NewProjectile("proj1", ProjectileBullet, "owner1", Vector2D{}, Vector2D{X: 100, Y: 0}, 10, 50, 0)

	if p.HasExceededRange() {
		t.Error("expected range not exceeded initially")
	}

	p.Advance(1.0)

	if !p.HasExceededRange() {
		t.Error("expected range exceeded after traveling past budget")
	}
}

func TestProjectile_FuseElapsed(t *testing.T) {
	p := NewProjectile("g1", ProjectileGrenade, "owner1", Vector2D{}, Vector2D{}, 80, 350, 120)

	if p.FuseElapsed(-1) == false {
		t.Error("expected negative fuse duration to report elapsed")
	}
}
