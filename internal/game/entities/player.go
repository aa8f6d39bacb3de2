package entities

import "time"

// WeaponType represents the type of weapon a player can carry.
type WeaponType string

const (
	WeaponRifle   WeaponType = "rifle"
	WeaponPistol  WeaponType = "pistol"
	WeaponGrenade WeaponType = "grenade"
	WeaponRocket  WeaponType = "rocket"
)

// Team is the player's side.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// MovementMode reflects the speed modifier the player's last accepted input
// selected.
type MovementMode string

const (
	MovementIdle    MovementMode = "idle"
	MovementWalking MovementMode = "walking"
	MovementRunning MovementMode = "running"
	MovementSneaking MovementMode = "sneaking"
)

// WeaponState is the per-player, per-weapon ammo/reload clock. Carried
// damage/range/reload/magazine/fire-interval fields are copied from the
// registry (game.WeaponStatsMap) at creation so the weapon component never
// has to cross back into the registry during resolution.
type WeaponState struct {
	Type WeaponType `json:"type"`

	CurrentAmmo int `json:"currentAmmo"`
	ReserveAmmo int `json:"reserveAmmo"`

	Reloading bool      `json:"reloading"`
	ReloadEnd time.Time `json:"-"`

	LastFire time.Time `json:"-"`

	Magazine int           `json:"magazine"`
	Damage   int           `json:"damage"`
	Range    float64       `json:"range"`
	ReloadMs int           `json:"reloadMs"`
	RPM      int           `json:"rpm"`
}

// Player is the authoritative record of one connected combatant.
type Player struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`

	Position Vector2D `json:"position"`
	Rotation float64  `json:"rotation"` // heading, radians
	Scale    float64  `json:"scale"`
	Velocity Vector2D `json:"velocity"`

	Health    int  `json:"health"`
	MaxHealth int  `json:"maxHealth"`
	Armor     int  `json:"armor"`
	Team      Team `json:"team"`

	CurrentWeapon WeaponType              `json:"currentWeapon"`
	Weapons       map[WeaponType]*WeaponState `json:"weapons"`

	IsAlive          bool         `json:"isAlive"`
	MovementMode     MovementMode `json:"movementMode"`
	ADS              bool         `json:"ads"`
	prevRightPressed bool         // for edge-triggered ADS toggle; not serialized

	LastDamageTime time.Time `json:"-"`
	Kills          int       `json:"kills"`
	Deaths         int       `json:"deaths"`

	LastProcessedInput uint32 `json:"lastProcessedInput"`
}

// NewPlayer creates a player with full health, a pistol equipped, and an
// empty weapon-state map (populated by the weapons registry on join).
func NewPlayer(id, username string, position Vector2D) *Player {
	return &Player{
		ID:            id,
		Username:      username,
		Position:      position,
		Scale:         1.0,
		Health:        100,
		MaxHealth:     100,
		Team:          TeamRed,
		CurrentWeapon: WeaponPistol,
		Weapons:       make(map[WeaponType]*WeaponState),
		IsAlive:       true,
		MovementMode:  MovementIdle,
	}
}

// TakeDamage applies damage to the player's health directly; Armor is
// currently an inert data-model field with no mitigation formula defined
// anywhere in the damage path. Returns true iff the player died from this
// hit.
func (p *Player) TakeDamage(damage int) bool {
	if !p.IsAlive {
		return false
	}
	p.LastDamageTime = time.Now()
	p.Health -= damage
	if p.Health <= 0 {
		p.Health = 0
		p.IsAlive = false
		p.Deaths++
		return true
	}
	return false
}

// ToggleADS flips the aim-down-sights flag on the rising edge of
// rightPressed: edge-triggered, not level-triggered on every tick the button
// is held.
func (p *Player) ToggleADS(rightPressed bool) {
	if rightPressed && !p.prevRightPressed {
		p.ADS = !p.ADS
	}
	p.prevRightPressed = rightPressed
}

// CurrentWeaponState returns the WeaponState for the player's selected
// weapon, or nil if it has not been registered (TransientAbsence, no-op).
func (p *Player) CurrentWeaponState() *WeaponState {
	return p.Weapons[p.CurrentWeapon]
}
