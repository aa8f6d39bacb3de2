package game

import (
	"math"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
)

// Game timing constants
const (
	ServerTickRate = 60                           // Ticks per second
	TickInterval   = time.Second / ServerTickRate // ~16.67ms
	ClientFPS      = 60
	ClientInterval = time.Second / ClientFPS
)

// Match constants
const (
	MinPlayers = 2
	MaxPlayers = 16
)

// Arena constants
const (
	ArenaWidth  = 2000.0
	ArenaHeight = 2000.0
	ScaleFactor = 1.0
)

// Player constants
const (
	PlayerMaxHealth   = 100
	PlayerRadius      = 16.0
	PlayerSpawnRadius = 50.0

	PlayerSpeedWalk  = 5.0 // units per tick at ServerTickRate
	PlayerSpeedRun   = 9.0
	PlayerSpeedSneak = 2.5

	VelocityDampFactor = 0.8 // multiplicative damp per tick when no movement keys held
)

// View cone constants (Visibility Polygon Engine)
const (
	ViewConeHalfAngle = 60.0 * math.Pi / 180.0 // α, ≈60° either side of heading
	ViewDistance      = 160.0                  // r
	ArcSampleStepRad  = 10.0 * math.Pi / 180.0 // max angular gap between interpolated arc points
	CornerEpsilonRad  = 1e-4
	ArcHitTolerance   = 0.1
	CornerDedupeTol   = 0.1
)

// Wall/destruction constants
const (
	WallSliceCount  = 5
	WallMaxHealth   = 100
	WallMinSize     = 120.0
	WallMaxSize     = 260.0
	WallThickness   = 24.0
	WallDensity     = 0.2  // fraction of arena area targeted for wall coverage
	WallMinDistance = 80.0 // minimum spacing between wall clusters
)

// MaterialVisionThreshold is the fraction of max health *below* which a slice
// of that material becomes transparent to vision. A slice at or below 0 health
// always transmits regardless of material.
var MaterialVisionThreshold = map[entities.WallMaterial]float64{
	entities.MaterialConcrete: 0.0,
	entities.MaterialWood:     0.25,
	entities.MaterialMetal:    0.0,
	entities.MaterialGlass:    0.75,
}

// WeaponStats carries the static per-weapon-type configuration loaded once
// from the registry.
type WeaponStats struct {
	Hitscan         bool
	BaseDamage      int
	MinDamage       int // damage floor at max range, for falloff interpolation
	Range           float64
	Magazine        int
	Reserve         int
	RPM             int // rounds per minute, drives fire-interval
	ReloadMs        int
	ProjectileSpeed float64 // 0 for hitscan weapons
	ExplosionRadius float64
}

var WeaponStatsMap = map[entities.WeaponType]WeaponStats{
	entities.WeaponRifle: {
		Hitscan:    true,
		BaseDamage: 25,
		MinDamage:  10,
		Range:      800.0,
		Magazine:   30,
		Reserve:    90,
		RPM:        600,
		ReloadMs:   2200,
	},
	entities.WeaponPistol: {
		Hitscan:    true,
		BaseDamage: 18,
		MinDamage:  8,
		Range:      500.0,
		Magazine:   12,
		Reserve:    48,
		RPM:        400,
		ReloadMs:   1400,
	},
	entities.WeaponGrenade: {
		Hitscan:         false,
		BaseDamage:      80,
		Range:           350.0,
		Magazine:        1,
		Reserve:         2,
		RPM:             60,
		ReloadMs:        0,
		ProjectileSpeed: GrenadeBaseThrowSpeed,
		ExplosionRadius: 120.0,
	},
	entities.WeaponRocket: {
		Hitscan:         false,
		BaseDamage:      100,
		Range:           1000.0,
		Magazine:        1,
		Reserve:         4,
		RPM:             50,
		ReloadMs:        2800,
		ProjectileSpeed: 14.0,
		ExplosionRadius: 140.0,
	},
}

// Grenade constants
const (
	GrenadeBaseThrowSpeed  = 9.0
	GrenadeChargeSpeedBonus = 2.0
	GrenadeRestitution     = 0.6
	GrenadeFuseMs          = 2500
	GrenadeMaxCharge       = 3
)

// Projectile constants
const (
	ProjectileRadius = 5.0
)

// Network constants
const (
	MaxMessageSize      = 65536
	WriteWait           = 10 * time.Second
	PongWait            = 60 * time.Second
	PingPeriod          = (PongWait * 9) / 10
	MaxMessageQueueSize = 256

	InputTimestampToleranceMs = 1000
	InputReorderWindow        = 10
)

// CalculateHitscanDamage applies linear distance falloff between full
// damage (at range 0) and MinDamage (at the weapon's configured Range).
// Weapons with MinDamage == 0 and BaseDamage == MinDamage fall back to a
// constant value (no falloff configured).
func CalculateHitscanDamage(stats WeaponStats, distance float64) int {
	if distance <= 0 {
		return stats.BaseDamage
	}
	if distance >= stats.Range {
		return stats.MinDamage
	}
	t := distance / stats.Range
	damage := float64(stats.BaseDamage) + t*float64(stats.MinDamage-stats.BaseDamage)
	return int(damage)
}

// GrenadeThrowSpeed returns the throw speed for a given charge level (1..3):
// BASE at charge 1, scaling by one additional bonus increment per level above 1.
func GrenadeThrowSpeed(chargeLevel int) float64 {
	return GrenadeBaseThrowSpeed + float64(chargeLevel-1)*GrenadeChargeSpeedBonus
}

// GrenadeRangeBudget scales the configured range by charge level.
func GrenadeRangeBudget(baseRange float64, chargeLevel int) float64 {
	return baseRange * (1.0 + float64(chargeLevel-1)*0.5)
}

// MouseInBounds reports whether a reported mouse position falls inside the
// game-space arena rectangle or the ScaleFactor-scaled screen-space
// rectangle; an input is only rejected if it lies outside both.
func MouseInBounds(x, y float64) bool {
	if x >= 0 && x <= ArenaWidth && y >= 0 && y <= ArenaHeight {
		return true
	}
	screenW, screenH := ArenaWidth*ScaleFactor, ArenaHeight*ScaleFactor
	return x >= 0 && x <= screenW && y >= 0 && y <= screenH
}
