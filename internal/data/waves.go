package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// EnemyDef is the template of one enemy kind.
type EnemyDef struct {
	Kind   string `yaml:"kind"`
	Health int    `yaml:"health"`
	Score  int    `yaml:"score"`
	Loot   string `yaml:"loot"` // loot table name, empty = no drops
}

// WaveEnemy is a weighted enemy kind within a wave.
type WaveEnemy struct {
	Kind   string  `yaml:"kind"`
	Weight float64 `yaml:"weight"`
}

// WaveDef describes one wave: how many enemies, how fast they arrive and
// which kinds they are drawn from.
type WaveDef struct {
	Number   int           `yaml:"wave"`
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
	Enemies  []WaveEnemy   `yaml:"enemies"`
}

type waveFile struct {
	Enemies []EnemyDef `yaml:"enemies"`
	Waves   []WaveDef  `yaml:"waves"`
}

// WaveTable holds enemy templates and the ordered wave list.
type WaveTable struct {
	enemies map[string]*EnemyDef
	waves   []WaveDef
}

// Enemy returns the template for kind, or nil.
func (t *WaveTable) Enemy(kind string) *EnemyDef {
	return t.enemies[kind]
}

// Kinds returns all enemy kinds sorted.
func (t *WaveTable) Kinds() []string {
	out := make([]string, 0, len(t.enemies))
	for k := range t.enemies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Waves returns the waves in ascending wave number.
func (t *WaveTable) Waves() []WaveDef {
	return t.waves
}

// Count returns the number of waves.
func (t *WaveTable) Count() int {
	return len(t.waves)
}

// LoadWaveTable loads enemy templates and waves from a YAML file.
func LoadWaveTable(path string) (*WaveTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waves: %w", err)
	}
	t, err := ParseWaveTable(raw)
	if err != nil {
		return nil, fmt.Errorf("waves %s: %w", path, err)
	}
	return t, nil
}

// ParseWaveTable decodes and validates wave YAML. Every enemy kind a wave
// references must have a template.
func ParseWaveTable(raw []byte) (*WaveTable, error) {
	var f waveFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	t := &WaveTable{enemies: make(map[string]*EnemyDef, len(f.Enemies))}
	for i := range f.Enemies {
		e := &f.Enemies[i]
		if e.Kind == "" {
			return nil, fmt.Errorf("enemy %d: missing kind", i)
		}
		if e.Health <= 0 {
			e.Health = 1
		}
		t.enemies[e.Kind] = e
	}
	for _, w := range f.Waves {
		if w.Count < 0 {
			return nil, fmt.Errorf("wave %d: negative count", w.Number)
		}
		for _, we := range w.Enemies {
			if _, ok := t.enemies[we.Kind]; !ok {
				return nil, fmt.Errorf("wave %d: unknown enemy kind %q", w.Number, we.Kind)
			}
		}
	}
	t.waves = f.Waves
	sort.SliceStable(t.waves, func(i, j int) bool { return t.waves[i].Number < t.waves[j].Number })
	return t, nil
}
