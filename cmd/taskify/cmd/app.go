package cmd

import (
	"fmt"
	"log"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/rueidis"
	"gorm.io/gorm"

	"taskify/internal/alarm"
	"taskify/internal/config"
	"taskify/internal/lock"
	"taskify/internal/notification"
	"taskify/internal/repository"
	"taskify/internal/service"
)

// app holds everything a command needs, built from the environment.
type app struct {
	cfg      config.Config
	db       *gorm.DB
	facility *alarm.CronFacility
	tasks    *service.TaskService
	botAPI   *tgbotapi.BotAPI
	redis    rueidis.Client
}

func newApp(withTelegram bool) (*app, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	a := &app{
		cfg:      cfg,
		db:       db,
		facility: alarm.NewCronFacility(cfg.Location, cfg.JobTimeout),
	}

	var channels []notification.Notifier
	if cfg.NotifyLog {
		channels = append(channels, notification.NewLogNotifier(log.New(os.Stdout, "", log.LstdFlags)))
	}
	if withTelegram && cfg.TelegramToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create bot api: %w", err)
		}
		log.Printf("[info] bot authorized on account %s", api.Self.UserName)
		a.botAPI = api
		channels = append(channels, notification.NewTelegramNotifier(api, cfg.TelegramChatID))
	}
	notifier := notification.NewManager(channels...)
	if notifier.ChannelCount() == 0 {
		log.Println("[warn] no notification channel configured, reminders will be dropped")
	}

	var guard lock.SweepGuard = lock.NopGuard{}
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		guard = lock.NewRedisGuard(client, cfg.SweepLockKey)
	}

	a.tasks, err = service.New(service.Deps{
		Store:     repository.NewTaskRepository(db),
		Facility:  a.facility,
		Notifier:  notifier,
		Guard:     guard,
		Location:  cfg.Location,
		SweepTime: cfg.SweepTime,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	a.facility.Stop()
	if a.redis != nil {
		a.redis.Close()
	}
	if err := repository.CloseDB(a.db); err != nil {
		log.Printf("[warn] close db: %v", err)
	}
}
