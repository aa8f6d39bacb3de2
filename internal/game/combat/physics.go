package combat

import (
	"math"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
)

// Physics handles player movement integration and collision resolution.
type Physics struct{}

// NewPhysics creates a new physics engine.
func NewPhysics() *Physics {
	return &Physics{}
}

// UpdatePlayerMovement resolves one tick of movement for player from the
// keys/mouse of a validated input, sliding along wall slices it collides
// with and clamping aim/ADS/rotation per the movement rules.
func (p *Physics) UpdatePlayerMovement(player *entities.Player, in models.Input, walls *destruction.Store) {
	if !player.IsAlive {
		return
	}

	dir := entities.Vector2D{}
	if in.Keys.W {
		dir.Y -= 1
	}
	if in.Keys.S {
		dir.Y += 1
	}
	if in.Keys.A {
		dir.X -= 1
	}
	if in.Keys.D {
		dir.X += 1
	}

	speed := game.PlayerSpeedWalk
	mode := entities.MovementIdle
	if dir.Magnitude() > 0 {
		mode = entities.MovementWalking
		if in.Keys.Shift {
			speed = game.PlayerSpeedRun
			mode = entities.MovementRunning
		} else if in.Keys.Ctrl {
			speed = game.PlayerSpeedSneak
			mode = entities.MovementSneaking
		}
		dir = dir.Normalize()
	}
	player.MovementMode = mode

	desiredVelocity := dir.Multiply(speed)
	newPosition := player.Position.Add(desiredVelocity)
	newPosition = clampToArena(newPosition)

	switch {
	case !walls.BlocksPlayerAt(newPosition, game.PlayerRadius):
		player.Position = newPosition
		player.Velocity = desiredVelocity
	case !walls.BlocksPlayerAt(entities.Vector2D{X: newPosition.X, Y: player.Position.Y}, game.PlayerRadius):
		player.Position = entities.Vector2D{X: newPosition.X, Y: player.Position.Y}
		player.Velocity = entities.Vector2D{X: desiredVelocity.X, Y: 0}
	case !walls.BlocksPlayerAt(entities.Vector2D{X: player.Position.X, Y: newPosition.Y}, game.PlayerRadius):
		player.Position = entities.Vector2D{X: player.Position.X, Y: newPosition.Y}
		player.Velocity = entities.Vector2D{X: 0, Y: desiredVelocity.Y}
	default:
		player.Velocity = entities.Vector2D{}
	}

	player.Rotation = math.Atan2(in.Mouse.Y-player.Position.Y, in.Mouse.X-player.Position.X)
	player.ToggleADS(in.Mouse.RightPressed)
}

// DampVelocity scales a player's velocity toward zero when no movement keys
// were held this tick (game.VelocityDampFactor per tick).
func (p *Physics) DampVelocity(player *entities.Player) {
	if player.MovementMode == entities.MovementIdle {
		player.Velocity = player.Velocity.Multiply(game.VelocityDampFactor)
	}
}

func clampToArena(pos entities.Vector2D) entities.Vector2D {
	if pos.X < game.PlayerRadius {
		pos.X = game.PlayerRadius
	}
	if pos.X > game.ArenaWidth-game.PlayerRadius {
		pos.X = game.ArenaWidth - game.PlayerRadius
	}
	if pos.Y < game.PlayerRadius {
		pos.Y = game.PlayerRadius
	}
	if pos.Y > game.ArenaHeight-game.PlayerRadius {
		pos.Y = game.ArenaHeight - game.PlayerRadius
	}
	return pos
}

// CheckPlayerCollisions resolves player-to-player overlap by pushing each
// pair apart symmetrically along their separating axis.
func (p *Physics) CheckPlayerCollisions(players map[string]*entities.Player) {
	playerList := make([]*entities.Player, 0, len(players))
	for _, player := range players {
		if player.IsAlive {
			playerList = append(playerList, player)
		}
	}

	for i := 0; i < len(playerList); i++ {
		for j := i + 1; j < len(playerList); j++ {
			p1 := playerList[i]
			p2 := playerList[j]

			distance := p1.Position.Distance(p2.Position)
			minDistance := game.PlayerRadius * 2

			if distance > 0 && distance < minDistance {
				pushDirection := p1.Position.Subtract(p2.Position).Normalize()
				pushAmount := (minDistance - distance) / 2

				p1.Position = clampToArena(p1.Position.Add(pushDirection.Multiply(pushAmount)))
				p2.Position = clampToArena(p2.Position.Add(pushDirection.Multiply(-pushAmount)))
			}
		}
	}
}
