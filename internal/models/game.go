// Package models holds the wire-level types exchanged with transport: the
// input packet accepted from clients, the per-tick snapshot broadcast to
// them, and the outbound event taxonomy. None of these are persisted; the
// simulation core is memory-only (see internal/game).
package models

import "github.com/BritishAmericqn/trespasser-backend/internal/game/entities"

// InputKeys is the boolean key state of one input packet.
type InputKeys struct {
	W     bool `json:"w"`
	A     bool `json:"a"`
	S     bool `json:"s"`
	D     bool `json:"d"`
	R     bool `json:"r"` // reload
	G     bool `json:"g"` // throw grenade / release charge
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	One   bool `json:"1"`
	Two   bool `json:"2"`
	Three bool `json:"3"`
	Four  bool `json:"4"`
}

// InputMouse is the mouse state of one input packet.
type InputMouse struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Buttons      uint8   `json:"buttons"`
	LeftPressed  bool    `json:"leftPressed"`
	RightPressed bool    `json:"rightPressed"`
}

// Input is one client input packet, queued by the transport layer and
// drained by the orchestrator at the next tick boundary.
type Input struct {
	Sequence  uint32     `json:"sequence"`
	Timestamp int64      `json:"timestamp"` // client-side ms since epoch
	Keys      InputKeys  `json:"keys"`
	Mouse     InputMouse `json:"mouse"`
}

// PlayerState is the wire projection of entities.Player included in a
// Snapshot, with the addition of lastProcessedInput for client reconciliation.
type PlayerState struct {
	ID                 string                 `json:"id"`
	Username           string                 `json:"username"`
	Position           entities.Vector2D      `json:"position"`
	Rotation           float64                `json:"rotation"`
	Velocity           entities.Vector2D      `json:"velocity"`
	Health             int                    `json:"health"`
	MaxHealth          int                    `json:"maxHealth"`
	Team               entities.Team          `json:"team"`
	CurrentWeapon      entities.WeaponType    `json:"currentWeapon"`
	IsAlive            bool                   `json:"isAlive"`
	ADS                bool                   `json:"ads"`
	LastProcessedInput uint32                 `json:"lastProcessedInput"`
}

// WallState is the wire projection of entities.Wall: only the destruction
// mask is sent per tick, not the full slice health (clients don't need the
// exact health, only what's destroyed).
type WallState struct {
	ID               string                              `json:"id"`
	Position         entities.Vector2D                   `json:"position"`
	Width            float64                             `json:"width"`
	Height           float64                              `json:"height"`
	Material         entities.WallMaterial               `json:"material"`
	DestructionMask  [entities.WallSliceCount]uint8       `json:"destructionMask"`
}

// ProjectileState is the wire projection of entities.Projectile.
type ProjectileState struct {
	ID       string                   `json:"id"`
	Kind     entities.ProjectileKind  `json:"kind"`
	OwnerID  string                   `json:"ownerId"`
	Position entities.Vector2D        `json:"position"`
	Velocity entities.Vector2D        `json:"velocity"`
}

// Snapshot is the full authoritative state broadcast once per tick.
type Snapshot struct {
	Players     map[string]PlayerState `json:"players"`
	Walls       map[string]WallState   `json:"walls"`
	Projectiles []ProjectileState      `json:"projectiles"`
	Timestamp   int64                  `json:"timestamp"`
	TickRate    uint16                 `json:"tickRate"`
}

// EventKind tags the variant of an Event's payload.
type EventKind string

const (
	EventWeaponFired    EventKind = "weaponFired"
	EventWeaponHit      EventKind = "weaponHit"
	EventWeaponMiss     EventKind = "weaponMiss"
	EventWeaponReload   EventKind = "weaponReload"
	EventWeaponReloaded EventKind = "weaponReloaded"
	EventWeaponSwitched EventKind = "weaponSwitched"

	EventPlayerDamaged EventKind = "playerDamaged"
	EventPlayerKilled  EventKind = "playerKilled"

	EventWallDamaged   EventKind = "wallDamaged"
	EventWallDestroyed EventKind = "wallDestroyed"

	EventProjectileCreated  EventKind = "projectileCreated"
	EventProjectileUpdated  EventKind = "projectileUpdated"
	EventProjectileExploded EventKind = "projectileExploded"
	EventExplosionCreated   EventKind = "explosionCreated"

	EventGrenadeThrown EventKind = "grenadeThrown"
)

// TargetType distinguishes what a weapon hit/miss struck.
type TargetType string

const (
	TargetPlayer TargetType = "player"
	TargetWall   TargetType = "wall"
)

// DamageType distinguishes the source of a PlayerDamaged event.
type DamageType string

const (
	DamageBullet    DamageType = "bullet"
	DamageExplosion DamageType = "explosion"
)

// Event is a single outbound notification. Only the fields relevant to Kind
// are populated; the rest are left at their zero value. A flat struct
// (rather than an interface per kind) keeps every event trivially
// serializable at the transport boundary.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`

	PlayerID string             `json:"playerId,omitempty"`
	Position entities.Vector2D  `json:"position,omitempty"`

	TargetType TargetType `json:"targetType,omitempty"`
	TargetID   string     `json:"targetId,omitempty"`

	Weapon entities.WeaponType `json:"weapon,omitempty"`

	Damage         int        `json:"damage,omitempty"`
	DamageType     DamageType `json:"damageType,omitempty"`
	SourcePlayerID string     `json:"sourcePlayerId,omitempty"`
	NewHealth      int        `json:"newHealth,omitempty"`
	IsKilled       bool       `json:"isKilled,omitempty"`

	WallID         string `json:"wallId,omitempty"`
	SliceIndex     int    `json:"sliceIndex,omitempty"`
	NewSliceHealth int    `json:"newSliceHealth,omitempty"`
	IsDestroyed    bool   `json:"isDestroyed,omitempty"`

	ProjectileID string  `json:"projectileId,omitempty"`
	Radius       float64 `json:"radius,omitempty"`
	ChargeLevel  int     `json:"chargeLevel,omitempty"`
}
