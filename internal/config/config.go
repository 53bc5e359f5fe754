package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ErrNoBoards       = errors.New("no boards configured")
	ErrDuplicateBoard = errors.New("duplicate board id")
	ErrEmptyBoardID   = errors.New("board id is empty")
)

type Config struct {
	LogLevel      string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort      string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort    string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis         Redis   `yaml:"redis"`
	HistoryLength int     `yaml:"history-length" env:"HISTORY_LENGTH" env-default:"100"`
	Boards        []Board `yaml:"boards"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

const (
	defaultBoardSize    = 3
	defaultClearDelay   = 2 * time.Second
	defaultRestartDelay = 3 * time.Second
)

// Board describes one grid the server hosts. Zero fields take the defaults in Validate.
type Board struct {
	ID           string        `yaml:"id"`
	Size         int           `yaml:"size"`
	ClearDelay   time.Duration `yaml:"clear-delay"`
	RestartDelay time.Duration `yaml:"restart-delay"`
	Starter      string        `yaml:"starter"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate - checks what cleanenv cannot: board ids must be present and unique.
// It also fills board defaults; cleanenv leaves slice elements untouched.
func (that *Config) Validate() error {
	if len(that.Boards) == 0 {
		return ErrNoBoards
	}

	seen := make(map[string]struct{}, len(that.Boards))
	for i := range that.Boards {
		board := &that.Boards[i]
		board.applyDefaults()

		if board.ID == "" {
			return fmt.Errorf("%w: board #%d", ErrEmptyBoardID, i)
		}

		if _, ok := seen[board.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateBoard, board.ID)
		}
		seen[board.ID] = struct{}{}
	}

	return nil
}

func (that *Board) applyDefaults() {
	if that.Size == 0 {
		that.Size = defaultBoardSize
	}

	if that.ClearDelay == 0 {
		that.ClearDelay = defaultClearDelay
	}

	if that.RestartDelay == 0 {
		that.RestartDelay = defaultRestartDelay
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
