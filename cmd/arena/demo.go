package main

import (
	"strings"

	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/gameplay"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/session"
	"go.uber.org/zap"
)

const (
	hitRadius   = 1.5
	touchRadius = 2.0
	botSpeed    = 0.5 // units per tick
)

// bot is a scripted player: it holds the weapon, shoots the nearest enemy
// and walks to loot on the ground.
type bot struct {
	s     *session.Session
	log   *zap.Logger
	actor *host.Actor
}

func newBot(s *session.Session, log *zap.Logger) *bot {
	a, _ := s.Join("demo bot", host.Vec3{})
	s.World.Grab(s.Weapon.Handle(), a.ID)
	return &bot{s: s, log: log, actor: a}
}

func (b *bot) act() {
	if target, ok := nearest(b.s.World, b.actor.Position, lootOnGround(b.s)); ok {
		step := b.s.World.Position(target).Sub(b.actor.Position)
		if step.Len() > botSpeed {
			step = step.Normalize().Scale(botSpeed)
		}
		b.actor.Position = b.actor.Position.Add(step)
	}
	if b.s.Weapon.Spent() {
		return
	}
	b.s.World.SetPosition(b.s.Weapon.Handle(), b.actor.Position)

	if b.s.Weapon.Holder() != b.actor.ID {
		return
	}
	if enemy, ok := nearest(b.s.World, b.actor.Position, b.s.Waves.Enemies()); ok {
		b.s.Weapon.Fire(b.s.World.Position(enemy).Sub(b.actor.Position))
	}
}

// finished reports whether the run is over: every wave is done, or the bot
// has nothing left to shoot with.
func (b *bot) finished() bool {
	return b.s.Waves.Phase() == gameplay.WaveFinished || b.s.Weapon.Spent()
}

func (b *bot) report() {
	st := b.s.Scores.Stats(b.actor.ID)
	b.log.Info("demo bot result",
		zap.Int("kills", st.Kills),
		zap.Int("pickups", st.Pickups),
		zap.Int("score", st.Score),
		zap.Int("shots", b.s.Weapon.Shots()),
		zap.Bool("weapon_spent", b.s.Weapon.Spent()),
	)
}

func lootOnGround(s *session.Session) []ecs.EntityID {
	var out []ecs.EntityID
	for _, name := range s.PoolNames() {
		if strings.HasPrefix(name, "loot/") {
			out = append(out, s.Pool(name).Allocated()...)
		}
	}
	return out
}

func nearest(w *host.World, from host.Vec3, handles []ecs.EntityID) (ecs.EntityID, bool) {
	var best ecs.EntityID
	bestDist := -1.0
	for _, h := range handles {
		d := w.Position(h).Dist(from)
		if bestDist < 0 || d < bestDist {
			best, bestDist = h, d
		}
	}
	return best, bestDist >= 0
}

// probeContacts stands in for a physics engine: it raises collision
// callbacks for projectiles near enemies and players near loot.
func probeContacts(s *session.Session) {
	enemies := s.Waves.Enemies()
	for _, shot := range s.Pool(session.PoolProjectile).Allocated() {
		if enemy, ok := nearest(s.World, s.World.Position(shot), enemies); ok &&
			s.World.Position(enemy).Dist(s.World.Position(shot)) <= hitRadius {
			s.World.Collide(shot, enemy)
		}
	}
	for _, item := range lootOnGround(s) {
		for _, a := range s.World.Actors() {
			if a.Position.Dist(s.World.Position(item)) <= touchRadius {
				s.World.Touch(item, a.ID)
				break
			}
		}
	}
}
