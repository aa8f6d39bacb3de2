package weapons

import (
	"testing"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
)

func newTestPlayer() *entities.Player {
	p := entities.NewPlayer("p1", "u", entities.Vector2D{})
	RegisterDefaultLoadout(p)
	return p
}

func TestRegisterDefaultLoadout_AllWeaponsPresent(t *testing.T) {
	p := newTestPlayer()
	for _, wt := range []entities.WeaponType{entities.WeaponRifle, entities.WeaponPistol, entities.WeaponGrenade, entities.WeaponRocket} {
		ws := p.Weapons[wt]
		if ws == nil {
			t.Fatalf("expected weapon %s to be registered", wt)
		}
		if ws.CurrentAmmo != ws.Magazine {
			t.Errorf("%s: expected full magazine, got %d/%d", wt, ws.CurrentAmmo, ws.Magazine)
		}
	}
}

func TestCanFire_RespectsCooldownAndAmmo(t *testing.T) {
	p := newTestPlayer()
	ws := p.Weapons[entities.WeaponRifle]
	now := time.Now()

	if !CanFire(p, ws, now) {
		t.Fatal("expected fresh weapon to be able to fire")
	}

	Fire(ws, now)
	if CanFire(p, ws, now) {
		t.Error("expected weapon on RPM cooldown to be unable to fire immediately again")
	}

	later := now.Add(time.Second)
	if !CanFire(p, ws, later) {
		t.Error("expected weapon to be able to fire after cooldown elapses")
	}
}

func TestCanFire_EmptyMagazine(t *testing.T) {
	p := newTestPlayer()
	ws := p.Weapons[entities.WeaponPistol]
	ws.CurrentAmmo = 0

	if CanFire(p, ws, time.Now()) {
		t.Error("expected empty magazine to prevent firing")
	}
}

func TestCanFire_DeadPlayer(t *testing.T) {
	p := newTestPlayer()
	p.IsAlive = false
	ws := p.Weapons[entities.WeaponRifle]

	if CanFire(p, ws, time.Now()) {
		t.Error("expected dead player to be unable to fire")
	}
}

func TestBeginReload_FailsWhenFullOrEmpty(t *testing.T) {
	p := newTestPlayer()
	ws := p.Weapons[entities.WeaponPistol]

	if BeginReload(ws, time.Now()) {
		t.Error("expected reload of a full magazine to fail")
	}

	ws.CurrentAmmo = 0
	ws.ReserveAmmo = 0
	if BeginReload(ws, time.Now()) {
		t.Error("expected reload with empty reserve to fail")
	}
}

func TestBeginReload_Success(t *testing.T) {
	p := newTestPlayer()
	ws := p.Weapons[entities.WeaponRifle]
	ws.CurrentAmmo = 5

	now := time.Now()
	if !BeginReload(ws, now) {
		t.Fatal("expected reload to begin")
	}
	if !ws.Reloading {
		t.Error("expected Reloading true")
	}
	if !ws.ReloadEnd.After(now) {
		t.Error("expected ReloadEnd to be in the future")
	}
}

func TestPollReloads_CompletesAndTransfersAmmo(t *testing.T) {
	p := newTestPlayer()
	ws := p.Weapons[entities.WeaponRifle]
	ws.CurrentAmmo = 5
	ws.ReserveAmmo = 60
	past := time.Now().Add(-time.Millisecond)
	ws.Reloading = true
	ws.ReloadEnd = past

	events := PollReloads(p, time.Now())

	if ws.Reloading {
		t.Error("expected reload to have completed")
	}
	if ws.CurrentAmmo != ws.Magazine {
		t.Errorf("expected full magazine after reload, got %d", ws.CurrentAmmo)
	}
	if ws.ReserveAmmo != 60-(ws.Magazine-5) {
		t.Errorf("expected reserve decremented by the transferred amount, got %d", ws.ReserveAmmo)
	}
	if len(events) != 1 || events[0].Kind != "weaponReloaded" {
		t.Errorf("expected one WeaponReloaded event, got %+v", events)
	}
}

func TestPollReloads_SwitchAbortsWithoutResumeOrEvent(t *testing.T) {
	p := newTestPlayer()
	p.CurrentWeapon = entities.WeaponRifle
	rifle := p.Weapons[entities.WeaponRifle]
	rifle.CurrentAmmo = 5
	rifle.ReserveAmmo = 60
	now := time.Now()
	BeginReload(rifle, now)

	// Switch away mid-reload: scenario 6 from the testable-properties list.
	if !SwitchWeapon(p, entities.WeaponPistol) {
		t.Fatal("expected switch to succeed")
	}
	if rifle.Reloading {
		t.Error("expected switching weapons to abort the pending reload")
	}

	events := PollReloads(p, now.Add(time.Hour))
	for _, e := range events {
		if e.Weapon == entities.WeaponRifle {
			t.Error("expected no WeaponReloaded event for the aborted rifle reload")
		}
	}
	if rifle.CurrentAmmo != 5 || rifle.ReserveAmmo != 60 {
		t.Errorf("expected rifle ammo unaffected by the aborted reload, got %d/%d", rifle.CurrentAmmo, rifle.ReserveAmmo)
	}

	// Switching back does not auto-resume.
	if !SwitchWeapon(p, entities.WeaponRifle) {
		t.Fatal("expected switch back to succeed")
	}
	if rifle.Reloading {
		t.Error("expected switching back not to resume the aborted reload")
	}
}

func TestSwitchWeapon_RejectsSameOrUnknown(t *testing.T) {
	p := newTestPlayer()

	if SwitchWeapon(p, p.CurrentWeapon) {
		t.Error("expected switching to the current weapon to fail")
	}
	if SwitchWeapon(p, entities.WeaponType("plasma")) {
		t.Error("expected switching to an unregistered weapon to fail")
	}
}
