// Package weapons implements the static weapon registry and the per-player
// fire/reload/switch state machine. Hitscan ray resolution lives alongside it
// in hitscan.go.
package weapons

import (
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
)

// NewWeaponState builds a fresh, fully-loaded WeaponState for wt from the
// static registry in game.WeaponStatsMap.
func NewWeaponState(wt entities.WeaponType) *entities.WeaponState {
	stats := game.WeaponStatsMap[wt]
	return &entities.WeaponState{
		Type:        wt,
		CurrentAmmo: stats.Magazine,
		ReserveAmmo: stats.Reserve,
		Magazine:    stats.Magazine,
		Damage:      stats.BaseDamage,
		Range:       stats.Range,
		ReloadMs:    stats.ReloadMs,
		RPM:         stats.RPM,
	}
}

// RegisterDefaultLoadout equips a player with all four weapon types, each
// with a full magazine and reserve. A player's WeaponState map is populated
// once, at join time; switching weapons only changes CurrentWeapon.
func RegisterDefaultLoadout(p *entities.Player) {
	for wt := range game.WeaponStatsMap {
		p.Weapons[wt] = NewWeaponState(wt)
	}
}

// fireIntervalMs is the minimum time between accepted shots for a weapon
// firing at rpm rounds per minute.
func fireIntervalMs(rpm int) int64 {
	if rpm <= 0 {
		return 0
	}
	return 60000 / int64(rpm)
}

// CanFire reports whether ws may fire at time now: the owning player must be
// alive, the weapon not reloading, ammo available, and the RPM-derived
// cooldown elapsed since the last accepted shot.
func CanFire(player *entities.Player, ws *entities.WeaponState, now time.Time) bool {
	if ws == nil || !player.IsAlive {
		return false
	}
	if ws.Reloading || ws.CurrentAmmo <= 0 {
		return false
	}
	if ws.LastFire.IsZero() {
		return true
	}
	return now.Sub(ws.LastFire) >= time.Duration(fireIntervalMs(ws.RPM))*time.Millisecond
}

// Fire consumes one round and records the fire timestamp. The caller must
// have already confirmed CanFire; Fire does not re-check (IllegalAction
// rejection happens at the call site so a diagnostic reason can be returned).
func Fire(ws *entities.WeaponState, now time.Time) {
	ws.CurrentAmmo--
	ws.LastFire = now
}

// BeginReload starts a reload of ws, returning false (IllegalAction, no
// state change) if already reloading, the magazine is full, or the reserve
// is empty.
func BeginReload(ws *entities.WeaponState, now time.Time) bool {
	if ws.Reloading || ws.CurrentAmmo >= ws.Magazine || ws.ReserveAmmo <= 0 {
		return false
	}
	ws.Reloading = true
	ws.ReloadEnd = now.Add(time.Duration(ws.ReloadMs) * time.Millisecond)
	return true
}

// PollReloads scans every weapon in the player's loadout for one whose
// reload has completed (ReloadEnd <= now), transfers ammo from reserve, and
// returns a WeaponReloaded event for each completion. Called once per tick
// by the orchestrator, instead of firing a completion callback off the timer
// that started the reload.
func PollReloads(player *entities.Player, now time.Time) []models.Event {
	var events []models.Event
	for wt, ws := range player.Weapons {
		if !ws.Reloading || now.Before(ws.ReloadEnd) {
			continue
		}
		needed := ws.Magazine - ws.CurrentAmmo
		transfer := needed
		if transfer > ws.ReserveAmmo {
			transfer = ws.ReserveAmmo
		}
		ws.CurrentAmmo += transfer
		ws.ReserveAmmo -= transfer
		ws.Reloading = false

		events = append(events, models.Event{
			Kind:      models.EventWeaponReloaded,
			Timestamp: now.UnixMilli(),
			PlayerID:  player.ID,
			Weapon:    wt,
		})
	}
	return events
}

// SwitchWeapon changes the player's current weapon, aborting any pending
// reload of the previous weapon without consuming reserve. Fails
// (IllegalAction) if to equals the current weapon or is not in the player's
// loadout.
func SwitchWeapon(player *entities.Player, to entities.WeaponType) bool {
	if to == player.CurrentWeapon {
		return false
	}
	if _, ok := player.Weapons[to]; !ok {
		return false
	}
	if prev := player.Weapons[player.CurrentWeapon]; prev != nil && prev.Reloading {
		prev.Reloading = false
	}
	player.CurrentWeapon = to
	return true
}
