package config

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	MemoryDriver = "memory"
	RedisDriver  = "redis"
	SQLiteDriver = "sqlite"
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Game     Game    `yaml:"game"`
	Storage  Storage `yaml:"storage"`
}

type Game struct {
	BoardSize    int    `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"3"`
	Mode         string `yaml:"mode" env:"GAME_MODE" env-default:"computer"`
	ComputerSide string `yaml:"computer-side" env:"GAME_COMPUTER_SIDE" env-default:"O"`
	StartingSide string `yaml:"starting-side" env:"GAME_STARTING_SIDE" env-default:"X"`
	Difficulty   string `yaml:"difficulty" env:"GAME_DIFFICULTY" env-default:"easy"`
	// "auto" keeps the board size default, "none" searches to the end.
	DepthLimit string `yaml:"depth-limit" env:"GAME_DEPTH_LIMIT" env-default:"auto"`
	// "auto" keeps the difficulty default.
	RandomMoveProbability string `yaml:"random-move-probability" env:"GAME_RANDOM_MOVE_PROBABILITY" env-default:"auto"`
	// "auto" keeps the difficulty default.
	ThinkDelay string `yaml:"think-delay" env:"GAME_THINK_DELAY" env-default:"auto"`
	JumpPolicy string `yaml:"jump-policy" env:"GAME_JUMP_POLICY" env-default:"clear"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	Redis      Redis  `yaml:"redis"`
	SQLitePath string `yaml:"sqlite-path" env:"STORAGE_SQLITE_PATH" env-default:"games.db"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Settings turns the game section into validated session settings.
func (that *Game) Settings() (entity.Settings, error) {
	settings := entity.DefaultSettings()

	settings.BoardSize = that.BoardSize
	settings.Mode = entity.Mode(that.Mode)
	settings.Difficulty = entity.Difficulty(that.Difficulty)
	settings.JumpPolicy = entity.JumpPolicy(that.JumpPolicy)

	computerSide, err := entity.ParseSide(that.ComputerSide)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("failed to parse computer side: %w", err)
	}
	settings.ComputerSide = computerSide

	startingSide, err := entity.ParseSide(that.StartingSide)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("failed to parse starting side: %w", err)
	}
	settings.StartingSide = startingSide

	if settings.DepthLimit, err = that.depthLimit(); err != nil {
		return entity.Settings{}, err
	}

	if settings.RandomMoveProbability, err = that.randomMoveProbability(); err != nil {
		return entity.Settings{}, err
	}

	if settings.ThinkDelay, err = that.thinkDelay(settings.Difficulty); err != nil {
		return entity.Settings{}, err
	}

	if err = settings.Validate(); err != nil {
		return entity.Settings{}, fmt.Errorf("invalid game config: %w", err)
	}

	return settings, nil
}

const (
	autoValue = "auto"
	noneValue = "none"
)

func (that *Game) depthLimit() (int, error) {
	switch that.DepthLimit {
	case autoValue, "":
		return entity.DefaultDepthLimit(that.BoardSize), nil
	case noneValue:
		return entity.NoDepthLimit, nil
	}

	limit, err := strconv.Atoi(that.DepthLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to parse depth limit: %w", err)
	}
	return limit, nil
}

func (that *Game) randomMoveProbability() (float64, error) {
	if that.RandomMoveProbability == autoValue || that.RandomMoveProbability == "" {
		return -1, nil
	}

	probability, err := strconv.ParseFloat(that.RandomMoveProbability, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse random move probability: %w", err)
	}

	if probability < 0 || math.IsNaN(probability) {
		return 0, fmt.Errorf("%w: random move probability %v", apperror.ErrInvalidSettings, probability)
	}
	return probability, nil
}

func (that *Game) thinkDelay(difficulty entity.Difficulty) (time.Duration, error) {
	if that.ThinkDelay == autoValue || that.ThinkDelay == "" {
		return difficulty.ThinkDelay(), nil
	}

	delay, err := time.ParseDuration(that.ThinkDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to parse think delay: %w", err)
	}
	return delay, nil
}
