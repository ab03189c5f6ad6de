package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/kanban/internal/adapters/email"
	"github.com/taskmaster/kanban/internal/adapters/lock"
	"github.com/taskmaster/kanban/internal/adapters/push"
	"github.com/taskmaster/kanban/internal/adapters/repository"
	"github.com/taskmaster/kanban/internal/adapters/webhook"
	"github.com/taskmaster/kanban/internal/application/services"
	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/infrastructure/dispatch"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/infrastructure/metrics"
	"github.com/taskmaster/kanban/internal/ports"
)

// App holds the services shared by the HTTP server and the CLI jobs.
type App struct {
	Auth          *services.AuthService
	Boards        *services.BoardService
	Lists         *services.ListService
	Tasks         *services.TaskService
	Comments      *services.CommentService
	Items         *services.TaskItemService
	Labels        *services.LabelService
	Invitations   *services.InvitationService
	Notifications *services.NotificationService
	Reminders     *services.ReminderService

	Hub        *push.Hub
	Redis      *redis.Client
	Dispatcher *dispatch.Dispatcher
	Metrics    *metrics.Metrics

	logger *logger.Logger
}

// NewApp builds repositories, delivery channels and services. m may be nil.
func NewApp(cfg *config.Config, db *database.DB, m *metrics.Metrics, appLogger *logger.Logger) (*App, error) {
	app := &App{Metrics: m, logger: appLogger}

	if cfg.Redis.Enabled {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.Redis.Ping(context.Background()).Err(); err != nil {
			app.Redis.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	users := repository.NewUserRepository(db)
	boards := repository.NewBoardRepository(db)
	lists := repository.NewListRepository(db)
	tasks := repository.NewTaskRepository(db)
	labels := repository.NewLabelRepository(db)
	comments := repository.NewCommentRepository(db)
	checklist := repository.NewChecklistRepository(db)
	attachments := repository.NewAttachmentRepository(db)
	notifications := repository.NewNotificationRepository(db)
	invitations := repository.NewInvitationRepository(db)
	activity := repository.NewActivityRepository(db)

	app.Hub = push.NewHub(appLogger)
	var pusher ports.PushChannel = push.NewLocalPusher(app.Hub)
	if cfg.Push.Backend == "redis" {
		if app.Redis == nil {
			return nil, fmt.Errorf("push backend redis requires redis.enabled")
		}
		pusher = push.NewRedisPusher(app.Redis)
	}

	app.Dispatcher = dispatch.New(dispatch.Config{
		Workers:    cfg.Notification.Workers,
		QueueSize:  cfg.Notification.QueueSize,
		JobTimeout: cfg.Notification.DeliveryTimeout,
	}, appLogger, m)

	app.Notifications = services.NewNotificationService(
		notifications,
		users,
		services.NotificationChannels{
			Push:    pusher,
			Email:   email.New(cfg.Email, appLogger),
			Webhook: webhook.NewClient(cfg.Webhook.Timeout),
		},
		app.Dispatcher,
		services.NotificationSettings{
			PreviewLength:    cfg.Notification.PreviewLength,
			BaseURL:          cfg.App.BaseURL,
			WebhookUsername:  cfg.Webhook.Username,
			WebhookAvatarURL: cfg.Webhook.AvatarURL,
		},
		appLogger,
	)

	app.Auth = services.NewAuthService(users, cfg.JWT, appLogger)
	app.Boards = services.NewBoardService(db, boards, lists, tasks, users, activity, appLogger)
	app.Lists = services.NewListService(db, boards, lists, tasks, activity, m, appLogger)
	app.Tasks = services.NewTaskService(db, services.TaskRepos{
		Boards:      boards,
		Lists:       lists,
		Tasks:       tasks,
		Labels:      labels,
		Comments:    comments,
		Checklist:   checklist,
		Attachments: attachments,
		Activity:    activity,
	}, app.Notifications, m, appLogger)
	app.Comments = services.NewCommentService(db, boards, lists, tasks, comments, activity, app.Notifications, appLogger)
	app.Items = services.NewTaskItemService(db, boards, lists, tasks, checklist, attachments, appLogger)
	app.Labels = services.NewLabelService(boards, labels, appLogger)
	app.Invitations = services.NewInvitationService(db, boards, users, invitations, activity, app.Notifications, appLogger)

	opts := services.ReminderOptions{
		LockTTL:  cfg.Reminder.LockTTL,
		Location: cfg.Reminder.Location(),
	}
	if app.Redis != nil {
		opts.Locker = lock.NewRedisLocker(app.Redis)
	}
	app.Reminders = services.NewReminderService(tasks, lists, boards, users, app.Notifications, opts, m, appLogger)

	return app, nil
}

// StartPush runs the socket hub, and the Redis relay when the push backend
// publishes through Redis. Both stop with ctx.
func (a *App) StartPush(ctx context.Context, backend string) {
	go a.Hub.Run(ctx)
	if backend == "redis" && a.Redis != nil {
		go push.Relay(ctx, a.Redis, a.Hub, a.logger)
	}
}

// Close drains pending deliveries and releases the Redis connection.
func (a *App) Close(ctx context.Context) error {
	err := a.Dispatcher.Shutdown(ctx)
	if a.Redis != nil {
		if cerr := a.Redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
