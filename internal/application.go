package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/tictactoe-grid/internal/config"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-grid/internal/service"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
	redistransport "github.com/rocketscienceinc/tictactoe-grid/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-grid/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-grid/transport/rest"
	"github.com/rocketscienceinc/tictactoe-grid/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roundRepo := repository.NewRoundRepository(redisStorage, conf.HistoryLength)
	historyService := service.NewHistoryService(logger, roundRepo)
	publisher := redistransport.New(logger, redisStorage)
	hub := websocket.NewHub(logger)

	// workers must drain before redis is closed
	var workers sync.WaitGroup
	defer workers.Wait()
	defer cancel()

	for _, run := range []func(context.Context){historyService.Run, publisher.Run, hub.Run} {
		workers.Add(1)
		go func() {
			defer workers.Done()
			run(ctx)
		}()
	}

	notifier := service.NewFanout(service.NewLogNotifier(logger), publisher, historyService, hub)

	gameManager := usecase.NewGameManager(logger, historyService)
	defer gameManager.Close()

	if err = addBoards(logger, gameManager, conf.Boards, notifier); err != nil {
		return err
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(rest.NewHandlers(logger, gameManager))
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func addBoards(logger *slog.Logger, gameManager *usecase.GameManager, boards []config.Board, notifier tictactoe.Notifier) error {
	clk := clock.New()

	for _, board := range boards {
		starter, err := tictactoe.ParseStarter(board.Starter)
		if err != nil {
			return fmt.Errorf("board %s: %w", board.ID, err)
		}

		err = gameManager.AddBoard(board.ID, board.Size,
			tictactoe.WithNotifier(notifier),
			tictactoe.WithClock(clk),
			tictactoe.WithDelays(board.ClearDelay, board.RestartDelay),
			tictactoe.WithStarter(starter),
			tictactoe.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("failed to add board: %w", err)
		}
	}

	return nil
}
