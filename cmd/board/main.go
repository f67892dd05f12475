package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/notify"
	"taskboard/internal/storeclient"
	"taskboard/pkg/logger"
	"taskboard/pkg/mq"
	"taskboard/pkg/redis"
	"taskboard/pkg/util"
)

func main() {
	cfg, err := config.LoadBoard()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Board.OwnerID == "" {
		log.Fatalf("board.owner_id (or BOARD_OWNER_ID) is required")
	}

	logg := logger.NewLogger(cfg.Log)
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Board.Location()
	if err != nil {
		logg.Fatal("Invalid timezone", zap.String("timezone", cfg.Board.Timezone), zap.Error(err))
	}
	policy, err := board.ParseOverridePolicy(cfg.Board.DragPolicy)
	if err != nil {
		logg.Fatal("Invalid drag policy", zap.Error(err))
	}

	client := storeclient.NewHTTPClient(storeclient.Options{
		BaseURL: cfg.Board.StoreURL,
		Token:   cfg.Board.Token,
		Timeout: cfg.Board.RequestTimeout,
		Breaker: cfg.Board.Breaker,
		Logger:  logg.Named("store"),
	}, nil)

	notifiers := notify.Multi{notify.NewLogNotifier(logg.Named("alerts"))}
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			logg.Warn("MQ unavailable, alerts stay local", zap.Error(err))
		} else {
			defer publisher.Close()
			owner := cfg.Board.OwnerID
			notifiers = append(notifiers, notify.NewAMQPNotifier(publisher, func() string { return owner }))
		}
	}

	var rdb *goredis.Client
	if cfg.Board.DedupeAlerts && cfg.Redis.Addr != "" {
		rdb, err = redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logg.Warn("Redis unavailable, alert memo is per session", zap.Error(err))
		} else {
			defer rdb.Close()
		}
	}

	opts := board.Options{
		Policy: policy,
		Scheduler: board.SchedulerOptions{
			Location: loc,
			Notifier: notifiers,
			Memo:     alertMemo(cfg, rdb, logg),
		},
		ScanTimeout: cfg.Board.RequestTimeout,
		Logger:      logg,
	}
	if cfg.Board.AudioCue {
		opts.Scheduler.Cue = notify.NewBellCue(os.Stdout)
	}
	b := board.New(client, opts)
	defer b.Close()

	notes := board.NewNotesAutosave(client, board.AutosaveOptions{
		Delay:        cfg.Board.AutosaveDelay,
		WriteTimeout: cfg.Board.RequestTimeout,
		Logger:       logg.Named("notes"),
	})
	defer notes.Close()

	owner := cfg.Board.OwnerID
	if err := b.Sync().Load(ctx, owner); err != nil {
		fmt.Fprintf(os.Stdout, "could not load tasks: %v\n", err)
	}
	if err := notes.Open(ctx, owner); err != nil {
		fmt.Fprintf(os.Stdout, "could not load note: %v\n", err)
	}

	if cfg.Board.RefreshInterval > 0 {
		go refreshLoop(ctx, b.Sync(), owner, cfg.Board.RefreshInterval, logg)
	}

	// unblock the input loop on SIGINT/SIGTERM
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	sh := &shell{board: b, notes: notes, owner: owner, out: os.Stdout}
	sh.show()
	if err := sh.run(ctx, os.Stdin); err != nil {
		logg.Error("Input loop failed", zap.Error(err))
	}
	logg.Info("Board closed", zap.String("owner_id", owner))
}

func alertMemo(cfg *config.BoardConfig, rdb *goredis.Client, logg *zap.Logger) board.AlertMemo {
	switch {
	case !cfg.Board.DedupeAlerts:
		return nil
	case rdb != nil:
		deduper := util.NewDeduper(rdb, cfg.Board.AlertTTL, logg.Named("dedup"))
		return notify.NewRedisMemo(deduper, cfg.Board.AlertSession, logg.Named("alerts"))
	default:
		return board.NewSessionMemo()
	}
}

// refreshLoop reloads the owner's tasks so deadlines are rescanned as the
// day changes and edits from elsewhere show up.
func refreshLoop(ctx context.Context, ts *board.TaskSync, owner string, every time.Duration, logg *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ts.Load(ctx, owner); err != nil {
				logg.Warn("Periodic reload failed", zap.Error(err))
			}
		}
	}
}
