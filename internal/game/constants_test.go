package game

import (
	"testing"

	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
)

func TestCalculateHitscanDamage_Falloff(t *testing.T) {
	stats := WeaponStatsMap[entities.WeaponRifle]

	tests := []struct {
		name     string
		distance float64
		expected int
	}{
		{"point blank", 0, stats.BaseDamage},
		{"at range", stats.Range, stats.MinDamage},
		{"half range", stats.Range / 2, (stats.BaseDamage + stats.MinDamage) / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			damage := CalculateHitscanDamage(stats, tt.distance)
			if damage != tt.expected {
				t.Errorf("expected damage %d, got %d", tt.expected, damage)
			}
		})
	}
}

func TestGrenadeThrowSpeed(t *testing.T) {
	tests := []struct {
		charge   int
		expected float64
	}{
		{1, GrenadeBaseThrowSpeed},
		{3, GrenadeBaseThrowSpeed + 2*GrenadeChargeSpeedBonus},
	}
	for _, tt := range tests {
		got := GrenadeThrowSpeed(tt.charge)
		if got != tt.expected {
			t.Errorf("charge %d: expected %f, got %f", tt.charge, tt.expected, got)
		}
	}
}

func TestGrenadeRangeBudget(t *testing.T) {
	base := 350.0
	if got := GrenadeRangeBudget(base, 1); got != base {
		t.Errorf("charge 1 should not scale range, got %f", got)
	}
	if got := GrenadeRangeBudget(base, 3); got != base*2.0 {
		t.Errorf("charge 3 should double range, got %f want %f", got, base*2.0)
	}
}

func TestWeaponStatsMap_AllTypesPresent(t *testing.T) {
	weapons := []entities.WeaponType{
		entities.WeaponRifle,
		entities.WeaponPistol,
		entities.WeaponGrenade,
		entities.WeaponRocket,
	}
	for _, w := range weapons {
		t.Run(string(w), func(t *testing.T) {
			stats, ok := WeaponStatsMap[w]
			if !ok {
				t.Fatalf("weapon %s missing from WeaponStatsMap", w)
			}
			if stats.Magazine <= 0 {
				t.Errorf("weapon %s has invalid magazine size", w)
			}
			if stats.Range <= 0 {
				t.Errorf("weapon %s has invalid range", w)
			}
		})
	}
}

func TestMaterialVisionThreshold_AllMaterialsPresent(t *testing.T) {
	materials := []entities.WallMaterial{
		entities.MaterialConcrete,
		entities.MaterialWood,
		entities.MaterialMetal,
		entities.MaterialGlass,
	}
	for _, m := range materials {
		if _, ok := MaterialVisionThreshold[m]; !ok {
			t.Errorf("material %s missing from MaterialVisionThreshold", m)
		}
	}
	if MaterialVisionThreshold[entities.MaterialGlass] != 0.75 {
		t.Errorf("glass threshold should be 0.75")
	}
}

func TestMouseInBounds(t *testing.T) {
	if !MouseInBounds(0, 0) {
		t.Error("origin should be in bounds")
	}
	if !MouseInBounds(ArenaWidth, ArenaHeight) {
		t.Error("far corner should be in bounds")
	}
	if MouseInBounds(-1, 100) {
		t.Error("negative x should be rejected")
	}
	if MouseInBounds(ArenaWidth*ScaleFactor+1, 100) {
		t.Error("x past the scaled screen-space rectangle should be rejected")
	}
}

func TestConstants_Consistency(t *testing.T) {
	if ServerTickRate <= 0 {
		t.Error("ServerTickRate must be positive")
	}
	if TickInterval <= 0 {
		t.Error("TickInterval must be positive")
	}
	if MinPlayers > MaxPlayers {
		t.Error("MinPlayers cannot be greater than MaxPlayers")
	}
	if ArenaWidth <= 0 || ArenaHeight <= 0 {
		t.Error("arena dimensions must be positive")
	}
	if WallSliceCount != 5 {
		t.Error("WallSliceCount must be 5")
	}
}
