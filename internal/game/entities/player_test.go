package entities

import "testing"

func TestNewPlayer(t *testing.T) {
	player := NewPlayer("player123", "TestPlayer", Vector2D{X: 100, Y: 200})

	if player.ID != "player123" {
		t.Errorf("expected ID player123, got %s", player.ID)
	}
	if player.Position.X != 100 || player.Position.Y != 200 {
		t.Errorf("expected position {100,200}, got %+v", player.Position)
	}
	if player.Health != 100 || player.MaxHealth != 100 {
		t.Errorf("expected health 100/100, got %d/%d", player.Health, player.MaxHealth)
	}
	if player.CurrentWeapon != WeaponPistol {
		t.Errorf("expected default weapon pistol, got %s", player.CurrentWeapon)
	}
	if !player.IsAlive {
		t.Error("expected IsAlive true")
	}
	if player.Weapons == nil {
		t.Error("expected Weapons map to be initialized")
	}
}

func TestPlayer_TakeDamage(t *testing.T) {
	tests := []struct {
		name           string
		initialHealth  int
		damage         int
		expectedHealth int
		expectedDead   bool
	}{
		{"partial damage", 100, 30, 70, false},
		{"fatal damage", 50, 50, 0, true},
		{"overkill clamps to zero", 30, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("p", "u", Vector2D{})
			p.Health = tt.initialHealth

			died := p.TakeDamage(tt.damage)

			if p.Health != tt.expectedHealth {
				t.Errorf("expected health %d, got %d", tt.expectedHealth, p.Health)
			}
			if died != tt.expectedDead {
				t.Errorf("expected died=%v, got %v", tt.expectedDead, died)
			}
			if p.IsAlive == tt.expectedDead {
				t.Errorf("expected IsAlive=%v, got %v", !tt.expectedDead, p.IsAlive)
			}
			if tt.expectedDead && p.Deaths != 1 {
				t.Errorf("expected Deaths incremented to 1, got %d", p.Deaths)
			}
		})
	}
}

func TestPlayer_TakeDamage_WhenDead(t *testing.T) {
	p := NewPlayer("p", "u", Vector2D{})
	p.IsAlive = false
	p.Health = 0

	if p.TakeDamage(50) {
		t.Error("expected died=false when already dead")
	}
	if p.Health != 0 {
		t.Errorf("expected health to remain 0, got %d", p.Health)
	}
}

func TestPlayer_ToggleADS_EdgeTriggered(t *testing.T) {
	p := NewPlayer("p", "u", Vector2D{})

	// Holding the button across several ticks only toggles once, on the
	// rising edge.
	p.ToggleADS(true)
	if !p.ADS {
		t.Fatal("expected ADS true after first press")
	}
	p.ToggleADS(true)
	if !p.ADS {
		t.Fatal("expected ADS to remain true while button held (level != edge)")
	}
	p.ToggleADS(false)
	if !p.ADS {
		t.Fatal("expected ADS unaffected by release")
	}
	p.ToggleADS(true)
	if p.ADS {
		t.Fatal("expected ADS false after second press (toggled off)")
	}
}

func TestPlayer_CurrentWeaponState_MissingIsNilNotPanic(t *testing.T) {
	p := NewPlayer("p", "u", Vector2D{})
	if ws := p.CurrentWeaponState(); ws != nil {
		t.Errorf("expected nil weapon state before registry assigns one, got %+v", ws)
	}
}
