package gameplay

import (
	"sort"

	"github.com/arenakit/arena/internal/host"
)

// PlayerStats is the per-player bookkeeping of one session.
type PlayerStats struct {
	Kills   int
	Pickups int
	Score   int
}

// ActorScore is one leaderboard row.
type ActorScore struct {
	Actor host.ActorID
	PlayerStats
}

// Scoreboard tracks kills, pickups and score per player and mirrors the
// score onto the player's HUD.
type Scoreboard struct {
	stats map[host.ActorID]*PlayerStats
	huds  *HUDManager
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{stats: make(map[host.ActorID]*PlayerStats)}
}

// AttachHUD makes score changes show up on player HUDs.
func (s *Scoreboard) AttachHUD(m *HUDManager) { s.huds = m }

func (s *Scoreboard) Kill(actor host.ActorID, points int) {
	st := s.get(actor)
	if st == nil {
		return
	}
	st.Kills++
	s.add(actor, st, points)
}

func (s *Scoreboard) Pickup(actor host.ActorID, points int) {
	st := s.get(actor)
	if st == nil {
		return
	}
	st.Pickups++
	s.add(actor, st, points)
}

// Stats returns a copy of actor's stats.
func (s *Scoreboard) Stats(actor host.ActorID) PlayerStats {
	if st, ok := s.stats[actor]; ok {
		return *st
	}
	return PlayerStats{}
}

// Forget drops a player that left.
func (s *Scoreboard) Forget(actor host.ActorID) {
	delete(s.stats, actor)
}

// Leaderboard returns all players by descending score, ties by actor id.
func (s *Scoreboard) Leaderboard() []ActorScore {
	out := make([]ActorScore, 0, len(s.stats))
	for id, st := range s.stats {
		out = append(out, ActorScore{Actor: id, PlayerStats: *st})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Actor < out[j].Actor
	})
	return out
}

func (s *Scoreboard) get(actor host.ActorID) *PlayerStats {
	if actor == host.NoActor || actor == host.ServerActor {
		return nil
	}
	st, ok := s.stats[actor]
	if !ok {
		st = &PlayerStats{}
		s.stats[actor] = st
	}
	return st
}

func (s *Scoreboard) add(actor host.ActorID, st *PlayerStats, points int) {
	st.Score += points
	if s.huds != nil {
		s.huds.SetScore(actor, st.Score)
	}
}
