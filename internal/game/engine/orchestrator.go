// Package engine owns the Game State Orchestrator: the fixed-tick pipeline
// that drains queued inputs, mutates player state, dispatches to the
// weapons/destruction/projectile/visibility components, and assembles the
// outbound snapshot and event list for one match.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/combat"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/visibility"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/weapons"
	"github.com/BritishAmericqn/trespasser-backend/internal/metrics"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
	"github.com/BritishAmericqn/trespasser-backend/pkg/logger"
)

// grenadeThrowCharge is the fixed charge level a G press throws at; there is
// no variable charge-hold mechanic.
const grenadeThrowCharge = 3

// QueuedInput pairs one player's input packet with the id it came from, as
// deposited into the orchestrator's thread-safe queue by the transport layer.
type QueuedInput struct {
	PlayerID string
	Input    models.Input
}

// Orchestrator owns one match's players, walls, and projectiles, and drives
// them through a single fixed-rate tick loop. One match = one orchestrator =
// one goroutine running its tick loop.
type Orchestrator struct {
	mu sync.RWMutex

	matchID     string
	tick        int64
	players     map[string]*entities.Player
	walls       *destruction.Store
	projectiles *combat.ProjectileEngine
	physics     *combat.Physics

	lastAccepted map[string]uint32
	events       []models.Event

	inputQueue    chan QueuedInput
	broadcastChan chan models.Snapshot
	lastSnapshot  models.Snapshot

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewOrchestrator creates an orchestrator with an empty player roster and
// the given wall layout (typically produced by mapgen).
func NewOrchestrator(matchID string, walls *destruction.Store) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		matchID:       matchID,
		players:       make(map[string]*entities.Player),
		walls:         walls,
		projectiles:   combat.NewProjectileEngine(),
		physics:       combat.NewPhysics(),
		lastAccepted:  make(map[string]uint32),
		inputQueue:    make(chan QueuedInput, 1000),
		broadcastChan: make(chan models.Snapshot, 100),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start begins the tick loop in its own goroutine.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	o.running = true
	o.mu.Unlock()

	go o.run()
	return nil
}

// Stop halts the tick loop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	o.running = false
	o.cancel()
}

func (o *Orchestrator) run() {
	ticker := time.NewTicker(game.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.Tick()
		}
	}
}

// AddPlayer registers a player and equips their default loadout.
func (o *Orchestrator) AddPlayer(player *entities.Player) {
	o.mu.Lock()
	defer o.mu.Unlock()
	weapons.RegisterDefaultLoadout(player)
	o.players[player.ID] = player
}

// RemovePlayer removes a player from the match.
func (o *Orchestrator) RemovePlayer(playerID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.players, playerID)
	delete(o.lastAccepted, playerID)
}

// QueueInput deposits one input packet for processing at the next tick
// boundary. Dropped silently if the queue is full.
func (o *Orchestrator) QueueInput(playerID string, in models.Input) {
	select {
	case o.inputQueue <- QueuedInput{PlayerID: playerID, Input: in}:
	default:
		logger.Warn("input queue full, dropping input", map[string]interface{}{"matchId": o.matchID, "playerId": playerID})
	}
}

// BroadcastChannel returns the per-tick snapshot channel.
func (o *Orchestrator) BroadcastChannel() <-chan models.Snapshot {
	return o.broadcastChan
}

// Tick runs one full pipeline pass: drain inputs (movement clamps each moving
// player to the arena), advance projectiles, resolve explosions, push
// overlapping players apart, damp velocity and poll reloads for each alive
// player, and emit a snapshot. The order is fixed and observable by clients.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	o.tick++
	o.events = o.events[:0]

	o.drainInputs()

	dt := game.TickInterval.Seconds()
	projEvents, explosions := o.projectiles.Advance(dt, o.walls, o.players)
	o.events = append(o.events, projEvents...)

	for _, exp := range explosions {
		metrics.ExplosionsTotal.WithLabelValues(string(exp.Kind)).Inc()
		resolved := combat.ResolveExplosion(exp, o.players, o.walls)
		o.recordWallDestructions(resolved)
		o.events = append(o.events, resolved...)
	}

	o.physics.CheckPlayerCollisions(o.players)

	now := time.Now()
	for _, player := range o.players {
		if !player.IsAlive {
			continue
		}
		o.physics.DampVelocity(player)
		o.events = append(o.events, weapons.PollReloads(player, now)...)
	}

	elapsed := time.Since(start)
	if elapsed > game.TickInterval {
		logger.Warn("tick exceeded budget", map[string]interface{}{"matchId": o.matchID, "tick": o.tick, "elapsedMs": elapsed.Milliseconds()})
	}

	o.broadcast()
}

// drainInputs validates and applies every queued input in arrival order.
func (o *Orchestrator) drainInputs() {
	for {
		select {
		case qi := <-o.inputQueue:
			o.applyInput(qi.PlayerID, qi.Input)
		default:
			return
		}
	}
}

// applyInput validates one input and, if accepted, mutates movement, aim,
// ADS, weapon selection, reload, fire, and grenade-throw state in that order.
func (o *Orchestrator) applyInput(playerID string, in models.Input) {
	player, ok := o.players[playerID]
	if !ok || !player.IsAlive {
		return // TransientAbsence / dead players accept no input
	}

	now := time.Now()
	nowMs := now.UnixMilli()
	if diff := nowMs - in.Timestamp; diff > game.InputTimestampToleranceMs || diff < -game.InputTimestampToleranceMs {
		return // InvalidInput: stale or future timestamp
	}
	last := o.lastAccepted[playerID]
	if last > 0 && int64(in.Sequence) <= int64(last)-game.InputReorderWindow {
		return // InvalidInput: outside the reorder tolerance window
	}
	if in.Mouse.Buttons > 7 {
		return // InvalidInput: malformed button bitmask
	}
	if !game.MouseInBounds(in.Mouse.X, in.Mouse.Y) {
		return // InvalidInput: mouse outside game-space and screen-space rectangles
	}

	o.physics.UpdatePlayerMovement(player, in, o.walls)

	switch {
	case in.Keys.One:
		o.switchWeapon(player, entities.WeaponRifle)
	case in.Keys.Two:
		o.switchWeapon(player, entities.WeaponPistol)
	case in.Keys.Three:
		o.switchWeapon(player, entities.WeaponGrenade)
	case in.Keys.Four:
		o.switchWeapon(player, entities.WeaponRocket)
	}

	if in.Keys.R {
		o.beginReload(player)
	}

	if in.Mouse.LeftPressed {
		o.fire(player)
	}
	if in.Keys.G && player.CurrentWeapon == entities.WeaponGrenade {
		o.throwGrenade(player)
	}

	if in.Sequence > last {
		o.lastAccepted[playerID] = in.Sequence
		player.LastProcessedInput = in.Sequence
	}
}

func (o *Orchestrator) switchWeapon(player *entities.Player, to entities.WeaponType) {
	if !weapons.SwitchWeapon(player, to) {
		return
	}
	o.events = append(o.events, models.Event{
		Kind: models.EventWeaponSwitched, Timestamp: time.Now().UnixMilli(),
		PlayerID: player.ID, Weapon: to,
	})
}

func (o *Orchestrator) beginReload(player *entities.Player) {
	ws := player.CurrentWeaponState()
	if ws == nil || !weapons.BeginReload(ws, time.Now()) {
		return
	}
	o.events = append(o.events, models.Event{
		Kind: models.EventWeaponReload, Timestamp: time.Now().UnixMilli(),
		PlayerID: player.ID, Weapon: ws.Type,
	})
}

func (o *Orchestrator) fire(player *entities.Player) {
	ws := player.CurrentWeaponState()
	now := time.Now()
	if ws == nil || !weapons.CanFire(player, ws, now) {
		return
	}
	stats := game.WeaponStatsMap[ws.Type]
	weapons.Fire(ws, now)

	o.events = append(o.events, models.Event{
		Kind: models.EventWeaponFired, Timestamp: now.UnixMilli(),
		PlayerID: player.ID, Weapon: ws.Type, Position: player.Position,
	})

	if stats.Hitscan {
		o.resolveHitscan(player, ws, stats)
		return
	}

	switch ws.Type {
	case entities.WeaponRocket:
		metrics.ProjectilesFired.WithLabelValues(string(ws.Type)).Inc()
		proj := o.projectiles.SpawnRocket(player, stats)
		o.events = append(o.events, models.Event{
			Kind: models.EventProjectileCreated, Timestamp: now.UnixMilli(),
			PlayerID: player.ID, ProjectileID: proj.ID, Position: proj.Position,
		})
	}
}

func (o *Orchestrator) resolveHitscan(player *entities.Player, ws *entities.WeaponState, stats game.WeaponStats) {
	result := weapons.ResolveHitscan(player.Position, player.Rotation, stats, o.walls, o.players, player.ID)
	now := time.Now().UnixMilli()
	if !result.Hit {
		metrics.HitscanResolutionsTotal.WithLabelValues("miss").Inc()
		o.events = append(o.events, models.Event{Kind: models.EventWeaponMiss, Timestamp: now, PlayerID: player.ID, Weapon: ws.Type})
		return
	}
	metrics.HitscanResolutionsTotal.WithLabelValues(string(result.TargetType)).Inc()

	o.events = append(o.events, models.Event{
		Kind: models.EventWeaponHit, Timestamp: now,
		PlayerID: player.ID, Weapon: ws.Type,
		TargetType: result.TargetType, TargetID: result.TargetID, Position: result.Position,
	})

	switch result.TargetType {
	case models.TargetWall:
		wallEvents, _ := o.walls.ApplyDamage(result.TargetID, result.Position, result.Damage)
		o.recordWallDestructions(wallEvents)
		o.events = append(o.events, wallEvents...)
		logger.Debug("hitscan damaged wall", map[string]interface{}{"matchId": o.matchID, "wallId": result.TargetID, "sliceIndex": result.WallSliceIndex})
	case models.TargetPlayer:
		target := o.players[result.TargetID]
		if target == nil {
			return
		}
		died := target.TakeDamage(result.Damage)
		o.events = append(o.events, models.Event{
			Kind: models.EventPlayerDamaged, Timestamp: now,
			PlayerID: target.ID, SourcePlayerID: player.ID,
			Damage: result.Damage, DamageType: models.DamageBullet,
			NewHealth: target.Health, IsKilled: died, Position: target.Position,
		})
		if died {
			player.Kills++
			o.events = append(o.events, models.Event{Kind: models.EventPlayerKilled, Timestamp: now, PlayerID: target.ID, SourcePlayerID: player.ID})
			logger.Debug("player killed", map[string]interface{}{"matchId": o.matchID, "victim": target.ID, "killer": player.ID})
		}
	}
}

func (o *Orchestrator) throwGrenade(player *entities.Player) {
	ws := player.Weapons[entities.WeaponGrenade]
	now := time.Now()
	if ws == nil || !weapons.CanFire(player, ws, now) {
		return
	}
	stats := game.WeaponStatsMap[entities.WeaponGrenade]
	weapons.Fire(ws, now)
	metrics.ProjectilesFired.WithLabelValues(string(entities.WeaponGrenade)).Inc()

	proj := o.projectiles.SpawnGrenade(player, stats, grenadeThrowCharge)
	o.events = append(o.events, models.Event{
		Kind: models.EventProjectileCreated, Timestamp: now.UnixMilli(),
		PlayerID: player.ID, ProjectileID: proj.ID, Position: proj.Position,
	})
	o.events = append(o.events, models.Event{
		Kind: models.EventGrenadeThrown, Timestamp: now.UnixMilli(),
		PlayerID: player.ID, Position: proj.Position, ChargeLevel: grenadeThrowCharge,
	})
}

// recordWallDestructions scans events for slice-destruction outcomes and
// tallies them by material, so dashboards can track attrition per material
// without replaying the event stream.
func (o *Orchestrator) recordWallDestructions(events []models.Event) {
	for _, e := range events {
		if e.Kind != models.EventWallDestroyed {
			continue
		}
		w := o.walls.Get(e.WallID)
		if w == nil {
			continue
		}
		metrics.WallSlicesDestroyedTotal.WithLabelValues(string(w.Material)).Inc()
	}
}

// broadcast assembles one snapshot of every player, wall and projectile,
// stores it as the last snapshot, and sends it on the broadcast channel. The
// snapshot is not scoped to any viewer here (FilterSnapshot does that per
// player); when the channel is full the snapshot is dropped with a warning.
func (o *Orchestrator) broadcast() {
	start := time.Now()
	wallStates := make(map[string]models.WallState, len(o.walls.All()))
	for _, w := range o.walls.All() {
		wallStates[w.ID] = models.WallState{
			ID: w.ID, Position: w.Position, Width: w.Width, Height: w.Height,
			Material: w.Material, DestructionMask: w.DestructionMask(),
		}
	}

	playerStates := make(map[string]models.PlayerState, len(o.players))
	for id, p := range o.players {
		playerStates[id] = models.PlayerState{
			ID: p.ID, Username: p.Username, Position: p.Position, Rotation: p.Rotation,
			Velocity: p.Velocity, Health: p.Health, MaxHealth: p.MaxHealth, Team: p.Team,
			CurrentWeapon: p.CurrentWeapon, IsAlive: p.IsAlive, ADS: p.ADS,
			LastProcessedInput: p.LastProcessedInput,
		}
	}

	projStates := make([]models.ProjectileState, 0, len(o.projectiles.Projectiles))
	for _, proj := range o.projectiles.Projectiles {
		projStates = append(projStates, models.ProjectileState{
			ID: proj.ID, Kind: proj.Kind, OwnerID: proj.OwnerID, Position: proj.Position, Velocity: proj.Velocity,
		})
	}

	snapshot := models.Snapshot{
		Players:     playerStates,
		Walls:       wallStates,
		Projectiles: projStates,
		Timestamp:   time.Now().UnixMilli(),
		TickRate:    game.ServerTickRate,
	}

	metrics.VisibilityPolygonDuration.Observe(time.Since(start).Seconds())

	o.lastSnapshot = snapshot

	select {
	case o.broadcastChan <- snapshot:
	default:
		logger.Warn("broadcast channel full, dropping snapshot", map[string]interface{}{"matchId": o.matchID, "tick": o.tick})
	}
}

// LastSnapshot returns the most recently broadcast snapshot, for callers
// that need to re-scope it per viewer (see FilterSnapshot) rather than
// consume it once off the broadcast channel.
func (o *Orchestrator) LastSnapshot() models.Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastSnapshot
}

// FilterSnapshot scopes full to what viewerID's visibility polygon admits:
// the viewer always sees themselves; every other player, wall, and
// projectile is included only if a representative point of it falls inside
// polygon. This is what lets each connection receive only the slice of the
// match state its own polygon allows, matching this codebase's existing
// room-broadcast pattern of per-member scoping.
func FilterSnapshot(full models.Snapshot, viewerID string, polygon []entities.Vector2D) models.Snapshot {
	players := make(map[string]models.PlayerState, len(full.Players))
	for id, p := range full.Players {
		if id == viewerID || visibility.Contains(polygon, p.Position) {
			players[id] = p
		}
	}

	walls := make(map[string]models.WallState, len(full.Walls))
	for id, w := range full.Walls {
		if wallVisible(w, polygon) {
			walls[id] = w
		}
	}

	projectiles := make([]models.ProjectileState, 0, len(full.Projectiles))
	for _, p := range full.Projectiles {
		if visibility.Contains(polygon, p.Position) {
			projectiles = append(projectiles, p)
		}
	}

	return models.Snapshot{
		Players:     players,
		Walls:       walls,
		Projectiles: projectiles,
		Timestamp:   full.Timestamp,
		TickRate:    full.TickRate,
	}
}

// wallVisible reports whether any corner of w's bounding box falls inside
// polygon; a wall that straddles the polygon boundary is included whole
// rather than clipped.
func wallVisible(w models.WallState, polygon []entities.Vector2D) bool {
	corners := [4]entities.Vector2D{
		{X: w.Position.X, Y: w.Position.Y},
		{X: w.Position.X + w.Width, Y: w.Position.Y},
		{X: w.Position.X + w.Width, Y: w.Position.Y + w.Height},
		{X: w.Position.X, Y: w.Position.Y + w.Height},
	}
	for _, c := range corners {
		if visibility.Contains(polygon, c) {
			return true
		}
	}
	return false
}

// VisibilityFor computes the visibility polygon for one player's current
// pose against the live wall layout, for per-connection scoping at the
// transport layer.
func (o *Orchestrator) VisibilityFor(playerID string) []entities.Vector2D {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.players[playerID]
	if !ok {
		return nil
	}
	return visibility.Compute(p.Position, p.Rotation, o.walls.All())
}

// Events returns the events produced by the most recently completed tick.
func (o *Orchestrator) Events() []models.Event {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Event, len(o.events))
	copy(out, o.events)
	return out
}

// AlivePlayerCount returns the number of currently living players.
func (o *Orchestrator) AlivePlayerCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	count := 0
	for _, p := range o.players {
		if p.IsAlive {
			count++
		}
	}
	return count
}
