package match

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/db/postgres"
	"github.com/BritishAmericqn/trespasser-backend/internal/game"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/destruction"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/engine"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/entities"
	"github.com/BritishAmericqn/trespasser-backend/internal/game/mapgen"
	"github.com/BritishAmericqn/trespasser-backend/internal/models"
	"github.com/BritishAmericqn/trespasser-backend/internal/repositories"
)

// Phase is the match's lifecycle state.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseEnding   Phase = "ending"
	PhaseFinished Phase = "finished"
)

// matchDuration is the hard cap on a match's playing time.
const matchDuration = 15 * time.Minute

// MatchEvent represents a custom match event broadcast outside the per-tick
// snapshot stream (e.g. match_ended).
type MatchEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Match owns one orchestrator instance, a generated wall layout, and the set
// of joined player ids for one lobby-assigned play session.
type Match struct {
	ID           string
	Players      map[string]*MatchPlayer // userID -> MatchPlayer
	Orchestrator *engine.Orchestrator
	MapGenerator *mapgen.MapGenerator

	StartTime time.Time
	EndTime   *time.Time
	Phase     Phase

	pgDB *postgres.DB

	// damageDealt tallies damage each attacker has dealt this match, scanned
	// out of the orchestrator's per-tick event stream since Player does not
	// carry a running damage counter.
	damageDealt map[string]int

	eventChan chan MatchEvent

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// MatchPlayer represents a player in a match.
type MatchPlayer struct {
	UserID       string
	Username     string
	Entity       *entities.Player
	Connected    bool
	DisconnectAt *time.Time
}

// NewMatch creates a new match.
func NewMatch(matchID string, pgDB *postgres.DB) *Match {
	ctx, cancel := context.WithCancel(context.Background())

	return &Match{
		ID:           matchID,
		Players:      make(map[string]*MatchPlayer),
		MapGenerator: mapgen.NewMapGenerator(game.ArenaWidth, game.ArenaHeight),
		Phase:        PhaseWaiting,
		pgDB:         pgDB,
		damageDealt:  make(map[string]int),
		eventChan:    make(chan MatchEvent, 10),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// AddPlayer adds a player to the match's roster. The player entity itself is
// created at Start, once the full roster (and so the spawn layout) is known.
func (m *Match) AddPlayer(userID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Players[userID]; exists {
		return fmt.Errorf("player already in match")
	}

	if len(m.Players) >= game.MaxPlayers {
		return fmt.Errorf("match is full")
	}

	m.Players[userID] = &MatchPlayer{
		UserID:    userID,
		Username:  username,
		Connected: true,
	}

	return nil
}

// RemovePlayer marks a player disconnected and removes them from the live
// orchestrator roster.
func (m *Match) RemovePlayer(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, exists := m.Players[userID]
	if !exists {
		return
	}

	player.Connected = false
	now := time.Now()
	player.DisconnectAt = &now

	if m.Orchestrator != nil {
		m.Orchestrator.RemovePlayer(userID)
	}
}

// Start generates the wall layout, spawns every joined player, and starts
// the orchestrator's tick loop plus the match-monitoring goroutine.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Phase != PhaseWaiting {
		return fmt.Errorf("match already started")
	}

	if len(m.Players) < game.MinPlayers {
		return fmt.Errorf("not enough players")
	}

	if err := m.MapGenerator.GenerateMap(game.WallDensity); err != nil {
		return fmt.Errorf("failed to generate map: %w", err)
	}

	walls := destruction.NewStore()
	for _, w := range m.MapGenerator.GetWalls() {
		walls.Add(w)
	}

	m.Orchestrator = engine.NewOrchestrator(m.ID, walls)
	m.spawnPlayers()

	m.Phase = PhasePlaying
	m.StartTime = time.Now()

	if err := m.Orchestrator.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	go m.monitorMatch()

	return nil
}

// spawnPlayers creates a player entity for every roster entry, arranged in a
// circle around the arena center, and registers each with the orchestrator.
func (m *Match) spawnPlayers() {
	centerX := game.ArenaWidth / 2
	centerY := game.ArenaHeight / 2
	spawnRadius := game.ArenaWidth / 4

	playerCount := len(m.Players)
	angleStep := (2 * math.Pi) / float64(playerCount)

	i := 0
	for userID, matchPlayer := range m.Players {
		angle := float64(i) * angleStep

		position := entities.Vector2D{
			X: centerX + math.Cos(angle)*spawnRadius,
			Y: centerY + math.Sin(angle)*spawnRadius,
		}

		player := entities.NewPlayer(userID, matchPlayer.Username, position)
		player.Rotation = angle + math.Pi // face the center

		matchPlayer.Entity = player
		m.Orchestrator.AddPlayer(player)

		i++
	}
}

// monitorMatch polls for end conditions once a second for the lifetime of
// the match.
func (m *Match) monitorMatch() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.tallyDamage()
			m.checkEndConditions()
		}
	}
}

// tallyDamage scans the orchestrator's most recent tick events for damage
// dealt by each attacker, accumulating it for the eventual MatchResult.
func (m *Match) tallyDamage() {
	m.mu.RLock()
	o := m.Orchestrator
	m.mu.RUnlock()
	if o == nil {
		return
	}

	for _, e := range o.Events() {
		if e.Kind == models.EventPlayerDamaged && e.SourcePlayerID != "" {
			m.mu.Lock()
			m.damageDealt[e.SourcePlayerID] += e.Damage
			m.mu.Unlock()
		}
	}
}

// checkEndConditions ends the match once at most one player is left alive
// (with more than one player ever having joined) or the time limit expires.
func (m *Match) checkEndConditions() {
	m.mu.RLock()
	o := m.Orchestrator
	totalPlayers := len(m.Players)
	phase := m.Phase
	startTime := m.StartTime
	m.mu.RUnlock()

	if phase != PhasePlaying || o == nil {
		return
	}

	aliveCount := o.AlivePlayerCount()
	shouldEnd := aliveCount == 0 || (totalPlayers > 1 && aliveCount <= 1)

	if shouldEnd || time.Since(startTime) > matchDuration {
		m.endMatch()
	}
}

// endMatch stops the orchestrator, schedules result persistence, and marks
// the match finished after a short grace period for final events to drain.
func (m *Match) endMatch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Phase == PhaseEnding || m.Phase == PhaseFinished {
		return
	}

	m.Phase = PhaseEnding
	now := time.Now()
	m.EndTime = &now

	m.Orchestrator.Stop()

	go m.saveResults()

	time.AfterFunc(5*time.Second, func() {
		m.mu.Lock()
		m.Phase = PhaseFinished
		m.mu.Unlock()
		m.cancel()
		close(m.eventChan)
	})
}

// ranking is one player's final standing, derived from kills (descending)
// then deaths (ascending) — there is no battle-royale elimination order to
// rank by, so standing is a scoreboard position rather than a placement.
type ranking struct {
	UserID      string
	Username    string
	Placement   int
	Kills       int
	Deaths      int
	DamageDealt int
}

// finalRankings sorts the roster by kills desc, deaths asc and assigns a
// 1-based placement, matching how a deathmatch scoreboard is presented.
func (m *Match) finalRankings() []ranking {
	rankings := make([]ranking, 0, len(m.Players))
	for userID, mp := range m.Players {
		if mp.Entity == nil {
			continue
		}
		rankings = append(rankings, ranking{
			UserID:      userID,
			Username:    mp.Username,
			Kills:       mp.Entity.Kills,
			Deaths:      mp.Entity.Deaths,
			DamageDealt: m.damageDealt[userID],
		})
	}

	for i := 1; i < len(rankings); i++ {
		j := i
		for j > 0 && less(rankings[j], rankings[j-1]) {
			rankings[j], rankings[j-1] = rankings[j-1], rankings[j]
			j--
		}
	}
	for i := range rankings {
		rankings[i].Placement = i + 1
	}

	return rankings
}

func less(a, b ranking) bool {
	if a.Kills != b.Kills {
		return a.Kills > b.Kills
	}
	return a.Deaths < b.Deaths
}

// saveResults broadcasts match_ended and best-effort persists results to
// Postgres; broadcasting happens unconditionally even if persistence fails.
func (m *Match) saveResults() {
	ctx := context.Background()

	m.mu.RLock()
	rankings := m.finalRankings()
	duration := 0
	if m.EndTime != nil {
		duration = int(m.EndTime.Sub(m.StartTime).Seconds())
	}
	playerCount := len(m.Players)
	m.mu.RUnlock()

	playerResults := make([]map[string]interface{}, 0, len(rankings))
	winnerID := ""
	for _, r := range rankings {
		mmrChange := calculateMMRChange(r.Placement, len(rankings))
		if r.Placement == 1 {
			winnerID = r.UserID
		}
		playerResults = append(playerResults, map[string]interface{}{
			"user_id":       r.UserID,
			"username":      r.Username,
			"placement":     r.Placement,
			"kills":         r.Kills,
			"damage_dealt":  r.DamageDealt,
			"survival_time": duration,
			"mmr_change":    mmrChange,
		})
	}

	m.eventChan <- MatchEvent{
		Type: "match_ended",
		Data: map[string]interface{}{
			"match_id":  m.ID,
			"duration":  duration,
			"rankings":  playerResults,
			"winner_id": winnerID,
		},
	}

	fmt.Printf("Match %s ended event broadcasted with %d player results\n", m.ID, len(playerResults))

	if m.pgDB == nil {
		fmt.Printf("Database not initialized, skipping result persistence for match %s\n", m.ID)
		return
	}
	if len(rankings) == 0 {
		fmt.Printf("No rankings to save for match %s\n", m.ID)
		return
	}

	matchRepo := repositories.NewMatchRepository(m.pgDB)

	dbMatchID, err := matchRepo.Create(ctx, repositories.CreateMatchParams{
		MapName:     "procedural",
		PlayerCount: playerCount,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Duration:    duration,
	})
	if err != nil {
		fmt.Printf("Error saving match to database: %v\n", err)
		return
	}

	for _, r := range rankings {
		if strings.HasPrefix(r.UserID, "guest_") {
			fmt.Printf("Skipping database save for guest user: %s\n", r.UserID)
			continue
		}

		mmrChange := calculateMMRChange(r.Placement, len(rankings))

		err := matchRepo.InsertResult(ctx, repositories.MatchResult{
			MatchID:      dbMatchID,
			UserID:       r.UserID,
			Placement:    r.Placement,
			Kills:        r.Kills,
			DamageDealt:  r.DamageDealt,
			SurvivalTime: duration,
			MMRChange:    mmrChange,
		})
		if err != nil {
			fmt.Printf("Error saving player result for %s: %v\n", r.UserID, err)
			continue
		}

		if err := matchRepo.UpdateMMR(ctx, r.UserID, mmrChange); err != nil {
			fmt.Printf("Error updating MMR for %s: %v\n", r.UserID, err)
		}
		if err := matchRepo.UpdateStats(ctx, r.UserID, r.Placement, r.Kills, r.Deaths); err != nil {
			fmt.Printf("Error updating stats for %s: %v\n", r.UserID, err)
		}
	}

	fmt.Printf("Match %s results saved to database\n", m.ID)
}

// calculateMMRChange awards MMR by scoreboard placement: the top scorer
// gains the most, the bottom half loses a flat amount.
func calculateMMRChange(placement, totalPlayers int) int {
	if placement == 1 {
		return 25 + (totalPlayers - 2)
	}

	topQuarter := int(math.Ceil(float64(totalPlayers) * 0.25))
	if placement <= topQuarter {
		return 15
	}

	topHalf := int(math.Ceil(float64(totalPlayers) * 0.5))
	if placement <= topHalf {
		return 5
	}

	return -10
}

// GetPlayerCount returns the number of players in the match.
func (m *Match) GetPlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Players)
}

// GetPhase returns the current match phase.
func (m *Match) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Phase
}

// IsFinished returns true if the match is finished.
func (m *Match) IsFinished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Phase == PhaseFinished
}

// GetEventChannel returns the match event channel.
func (m *Match) GetEventChannel() <-chan MatchEvent {
	return m.eventChan
}
