package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	World    WorldConfig    `toml:"world"`
	Pools    PoolsConfig    `toml:"pools"`
	Loot     LootConfig     `toml:"loot"`
	Waves    WavesConfig    `toml:"waves"`
	Weapon   WeaponConfig   `toml:"weapon"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Database DatabaseConfig `toml:"database"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type WorldConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	Seed     uint64        `toml:"seed"` // 0 = seed from clock
}

// PoolsConfig sizes every object pool placed at world build.
type PoolsConfig struct {
	Policy     string `toml:"policy"` // "unordered" or "lru"
	HUD        int    `toml:"hud"`
	Projectile int    `toml:"projectile"`
	LootItem   int    `toml:"loot_item"`  // per loot item kind
	EnemyKind  int    `toml:"enemy_kind"` // per enemy kind
	Beacon     int    `toml:"beacon"`     // Lua-scripted markers, 0 = none
}

type LootConfig struct {
	Tables  string         `toml:"tables"`
	Despawn time.Duration  `toml:"despawn"`
	Values  map[string]int `toml:"values"` // score per pickup, unlisted items are worth 1
}

type WavesConfig struct {
	Path       string        `toml:"path"`
	Cooldown   time.Duration `toml:"cooldown"` // pause between cleared wave and next
	SpawnPoint [3]float64    `toml:"spawn_point"`
	Spread     float64       `toml:"spread"`
}

type WeaponConfig struct {
	Damage          int           `toml:"damage"`
	ProjectileSpeed float64       `toml:"projectile_speed"` // units per second
	Range           float64       `toml:"range"`
	Cooldown        time.Duration `toml:"cooldown"`
	Charges         int           `toml:"charges"` // 0 never runs out
}

type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the ledger database
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LedgerConfig struct {
	FlushEvery   int           `toml:"flush_every"` // ticks between flushes
	MaxBuffered  int           `toml:"max_buffered"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.World.TickRate <= 0 {
		return nil, fmt.Errorf("world.tick_rate must be positive")
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "arena",
		},
		World: WorldConfig{
			TickRate: 100 * time.Millisecond,
		},
		Pools: PoolsConfig{
			Policy:     "unordered",
			HUD:        4,
			Projectile: 16,
			LootItem:   8,
			EnemyKind:  6,
			Beacon:     2,
		},
		Loot: LootConfig{
			Tables:  "data/yaml/loot_tables.yaml",
			Despawn: 20 * time.Second,
			Values:  map[string]int{"coin": 1, "gem": 5},
		},
		Waves: WavesConfig{
			Path:       "data/yaml/waves.yaml",
			Cooldown:   3 * time.Second,
			SpawnPoint: [3]float64{0, 0, 30},
			Spread:     8,
		},
		Weapon: WeaponConfig{
			Damage:          10,
			ProjectileSpeed: 40,
			Range:           60,
			Cooldown:        250 * time.Millisecond,
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Ledger: LedgerConfig{
			FlushEvery:   50,
			MaxBuffered:  4096,
			WriteTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
