package combat

import (
	"testing"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func newMovingPlayer() *entities.Player {
	return &entities.Player{
		ID:       "player1",
		Position: entities.Vector2D{X: 500, Y: 500},
		IsAlive:  true,
		Health:   100,
	}
}

func TestUpdatePlayerMovement_Forward(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	initialY := player.Position.Y
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true}}, walls)

	assert.Less(t, player.Position.Y, initialY, "W should decrease Y")
	assert.Equal(t, entities.MovementWalking, player.MovementMode)
}

func TestUpdatePlayerMovement_Backward(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	initialY := player.Position.Y
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{S: true}}, walls)

	assert.Greater(t, player.Position.Y, initialY, "S should increase Y")
}

func TestUpdatePlayerMovement_Left(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	initialX := player.Position.X
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{A: true}}, walls)

	assert.Less(t, player.Position.X, initialX, "A should decrease X")
}

func TestUpdatePlayerMovement_Right(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	initialX := player.Position.X
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{D: true}}, walls)

	assert.Greater(t, player.Position.X, initialX, "D should increase X")
}

func TestUpdatePlayerMovement_DiagonalIsNormalized(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true, D: true}}, walls)

	assert.InDelta(t, game.PlayerSpeedWalk, player.Velocity.Magnitude(), 0.01, "diagonal movement should not exceed walk speed")
}

func TestUpdatePlayerMovement_ShiftRuns(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true, Shift: true}}, walls)

	assert.InDelta(t, game.PlayerSpeedRun, player.Velocity.Magnitude(), 0.01)
	assert.Equal(t, entities.MovementRunning, player.MovementMode)
}

func TestUpdatePlayerMovement_CtrlSneaks(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true, Ctrl: true}}, walls)

	assert.InDelta(t, game.PlayerSpeedSneak, player.Velocity.Magnitude(), 0.01)
	assert.Equal(t, entities.MovementSneaking, player.MovementMode)
}

func TestUpdatePlayerMovement_NoInput(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{}, walls)

	assert.InDelta(t, 500, player.Position.X, 0.01)
	assert.InDelta(t, 500, player.Position.Y, 0.01)
	assert.Equal(t, entities.MovementIdle, player.MovementMode)
}

func TestUpdatePlayerMovement_DeadPlayerDoesNotMove(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.IsAlive = false
	walls := destruction.NewStore()

	initial := player.Position
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true, D: true}}, walls)

	assert.Equal(t, initial, player.Position, "dead player position should not change")
}

func TestUpdatePlayerMovement_RotationFacesMouse(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Position = entities.Vector2D{X: 100, Y: 100}
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{X: 200, Y: 100}}, walls)

	assert.InDelta(t, 0.0, player.Rotation, 0.0001)
}

func TestUpdatePlayerMovement_RotationIndependentOfMovement(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{X: 600, Y: 500}}, walls)

	assert.InDelta(t, 500, player.Position.X, 0.01)
	assert.InDelta(t, 500, player.Position.Y, 0.01)
	assert.InDelta(t, 0.0, player.Rotation, 0.0001)
}

func TestUpdatePlayerMovement_RightPressEdgeTriggersADS(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{RightPressed: true}}, walls)
	assert.True(t, player.ADS)

	// Holding it down on the next tick must not toggle again.
	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{RightPressed: true}}, walls)
	assert.True(t, player.ADS)

	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{RightPressed: false}}, walls)
	physics.UpdatePlayerMovement(player, models.Input{Mouse: models.InputMouse{RightPressed: true}}, walls)
	assert.False(t, player.ADS)
}

func TestUpdatePlayerMovement_BoundaryLeft(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Position = entities.Vector2D{X: 10, Y: 500}
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{A: true}}, walls)

	assert.GreaterOrEqual(t, player.Position.X, game.PlayerRadius)
}

func TestUpdatePlayerMovement_BoundaryTop(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Position = entities.Vector2D{X: 500, Y: 10}
	walls := destruction.NewStore()

	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true}}, walls)

	assert.GreaterOrEqual(t, player.Position.Y, game.PlayerRadius)
}

func TestUpdatePlayerMovement_BlockedByWallStopsInPlace(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Position = entities.Vector2D{X: 500 - game.PlayerRadius - game.PlayerSpeedWalk, Y: 500}
	walls := destruction.NewStore()
	// A vertical wall directly east of the player blocks straight-east movement.
	walls.Add(entities.NewWall("w1", entities.Vector2D{X: 500, Y: 480}, 8, 40, entities.MaterialConcrete, 100))

	initial := player.Position
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{D: true}}, walls)

	assert.Equal(t, initial, player.Position, "movement straight into the wall should be fully blocked")
	assert.Equal(t, entities.Vector2D{}, player.Velocity)
}

func TestUpdatePlayerMovement_DestroyedSlicesNoLongerBlock(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Position = entities.Vector2D{X: 500 - game.PlayerRadius - game.PlayerSpeedWalk, Y: 500}
	walls := destruction.NewStore()
	w := entities.NewWall("w1", entities.Vector2D{X: 500, Y: 480}, 8, 40, entities.MaterialConcrete, 100)
	for i := range w.Slices {
		w.Slices[i].Health = 0
		w.Slices[i].Destroyed = true
	}
	walls.Add(w)

	initialX := player.Position.X
	physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{D: true}}, walls)

	assert.Greater(t, player.Position.X, initialX, "a fully destroyed wall should no longer block movement")
}

func TestDampVelocity_OnlyWhenIdle(t *testing.T) {
	physics := NewPhysics()
	player := newMovingPlayer()
	player.Velocity = entities.Vector2D{X: 10, Y: 0}
	player.MovementMode = entities.MovementIdle

	physics.DampVelocity(player)
	assert.InDelta(t, 10*game.VelocityDampFactor, player.Velocity.X, 0.0001)

	player.MovementMode = entities.MovementWalking
	before := player.Velocity.X
	physics.DampVelocity(player)
	assert.Equal(t, before, player.Velocity.X, "moving players are not damped")
}

func TestCheckPlayerCollisions_PushesApart(t *testing.T) {
	physics := NewPhysics()
	players := map[string]*entities.Player{
		"a": {ID: "a", Position: entities.Vector2D{X: 500, Y: 500}, IsAlive: true},
		"b": {ID: "b", Position: entities.Vector2D{X: 500 + game.PlayerRadius, Y: 500}, IsAlive: true},
	}

	physics.CheckPlayerCollisions(players)

	dist := players["a"].Position.Distance(players["b"].Position)
	assert.GreaterOrEqual(t, dist, game.PlayerRadius*2-0.01)
}

func TestCheckPlayerCollisions_IgnoresDeadPlayers(t *testing.T) {
	physics := NewPhysics()
	players := map[string]*entities.Player{
		"a": {ID: "a", Position: entities.Vector2D{X: 500, Y: 500}, IsAlive: true},
		"b": {ID: "b", Position: entities.Vector2D{X: 500, Y: 500}, IsAlive: false},
	}

	initial := players["b"].Position

	physics.CheckPlayerCollisions(players)

	assert.Equal(t, initial, players["b"].Position)
}

func TestUpdatePlayerMovement_ManyPlayers(t *testing.T) {
	physics := NewPhysics()
	walls := destruction.NewStore()

	players := make(map[string]*entities.Player)
	for i := 0; i < 100; i++ {
		id := "player" + string(rune('A'+i%26)) + string(rune(i))
		players[id] = &entities.Player{ID: id, Position: entities.Vector2D{X: float64(100 + i*10), Y: float64(100 + i*10)}, IsAlive: true, Health: 100}
	}

	assert.NotPanics(t, func() {
		for _, player := range players {
			physics.UpdatePlayerMovement(player, models.Input{Keys: models.InputKeys{W: true}, Mouse: models.InputMouse{X: 1, Y: 1}}, walls)
		}
	})
}
