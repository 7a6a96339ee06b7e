package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/weblog-service/internal/akismet"
	"github.com/UkralStul/weblog-service/internal/config"
	"github.com/UkralStul/weblog-service/internal/delicious"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/httpapi"
	"github.com/UkralStul/weblog-service/internal/logging"
	"github.com/UkralStul/weblog-service/internal/markup"
	"github.com/UkralStul/weblog-service/internal/moderation"
	"github.com/UkralStul/weblog-service/internal/notify"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/storage/gormstore"
	"github.com/UkralStul/weblog-service/internal/storage/inmemory"
	"github.com/UkralStul/weblog-service/internal/weblog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	storageType := flag.String("storage", cfg.Storage, "Storage type (in-memory, postgres or sqlite)")
	flag.Parse()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("failed to configure logging: %v", err)
	}

	log.Infof("Starting server with %s storage", *storageType)
	var store storage.Storage
	switch *storageType {
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL must be set for postgres storage")
		}
		s, err := gormstore.OpenPostgres(cfg.DatabaseURL, logger.Warn)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer s.Close()
		store = s
	case "sqlite":
		s, err := gormstore.OpenSQLite(cfg.SQLitePath, logger.Warn)
		if err != nil {
			log.Fatalf("failed to open sqlite: %v", err)
		}
		defer s.Close()
		store = s
	case "in-memory":
		store = inmemory.New()
	default:
		log.Fatalf("unknown storage type %q", *storageType)
	}

	var idx *search.Index
	if cfg.SearchIndexPath != "" {
		idx, err = search.Open(cfg.SearchIndexPath)
	} else {
		idx, err = search.NewMemOnly()
	}
	if err != nil {
		log.Fatalf("failed to open search index: %v", err)
	}
	defer idx.Close()

	indexed, err := idx.Rebuild(context.Background(), store)
	if err != nil {
		log.Fatalf("failed to rebuild search index: %v", err)
	}
	log.WithField("documents", indexed).Info("search index rebuilt")

	var spam moderation.SpamChecker
	if cfg.Akismet.Enabled {
		spam = akismet.NewClient(cfg.Akismet.APIKey, cfg.Akismet.BlogURL)
	}
	moderator := moderation.New(moderation.Config{
		ModerateAfter:     cfg.Comments.ModerateAfter,
		SpamCheck:         cfg.Akismet.Enabled,
		EmailNotification: cfg.Comments.EmailNotification,
	}, spam, moderation.WithLogger(log.WithField("component", "moderation")))

	observer := httpapi.NewCommentObserver()
	opts := []weblog.Option{
		weblog.WithLogger(log.WithField("component", "weblog")),
		weblog.WithIndex(idx),
		weblog.WithBroadcaster(observer),
		weblog.WithPublishTimeout(cfg.Delicious.Timeout),
	}
	if cfg.Delicious.User != "" {
		opts = append(opts, weblog.WithPublisher(
			delicious.NewClient(cfg.Delicious.BaseURL, cfg.Delicious.User, cfg.Delicious.Password, cfg.Delicious.Timeout)))
	}
	if cfg.SMTP.Host != "" {
		opts = append(opts, weblog.WithMailer(notify.NewMailer(notify.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
		}, cfg.SiteName, cfg.Managers)))
	}
	svc := weblog.New(store, markup.New(cfg.AllowRawHTML), moderator, opts...)

	if *storageType == "in-memory" {
		// Заполним данными для тестов
		fillWithMockData(svc, log)
	}

	server := httpapi.NewServer(svc, observer, log, httpapi.Options{
		DefaultPostElsewhere:  cfg.DefaultExternalLinkPost,
		KeepAlivePingInterval: 10 * time.Second,
	})

	log.Infof("listening on http://localhost:%s/", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, server.Router()); err != nil {
		log.Fatalf("server failed to start: %v", err)
	}
}

func fillWithMockData(svc *weblog.Service, log logrus.FieldLogger) {
	ctx := context.Background()
	now := time.Now().UTC()

	// 1. Рубрика для записей.
	cat, err := svc.CreateCategory(ctx, &domain.Category{
		Title:       "Go",
		Description: "Заметки о *Go*.",
	})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create category: %v", err)
	}

	// 2. Опубликованная запись с включенными комментариями.
	first, err := svc.CreateEntry(ctx, &domain.Entry{
		Title:          "Первая запись",
		Slug:           "first-entry",
		PubDate:        now.Add(-48 * time.Hour),
		AuthorID:       "user-1",
		Status:         domain.StatusLive,
		EnableComments: true,
		Excerpt:        "Коротко о главном.",
		Body:           "Это содержимое **тестовой** записи.",
		Tags:           "go weblog",
		CategoryIDs:    []string{cat.ID},
	})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create entry: %v", err)
	}

	// 3. Черновик: в публичных списках и навигации его не видно.
	if _, err := svc.CreateEntry(ctx, &domain.Entry{
		Title:    "Черновик",
		Slug:     "draft",
		PubDate:  now.Add(-24 * time.Hour),
		AuthorID: "user-1",
		Status:   domain.StatusDraft,
		Body:     "Еще не готово.",
	}); err != nil {
		log.Fatalf("fillWithMockData: failed to create draft: %v", err)
	}

	// 4. Вторая опубликованная запись, комментарии выключены.
	second, err := svc.CreateEntry(ctx, &domain.Entry{
		Title:          "Запись без комментариев",
		Slug:           "no-comments",
		PubDate:        now,
		AuthorID:       "user-admin",
		Status:         domain.StatusLive,
		EnableComments: false,
		Body:           "К этой записи нельзя оставлять комментарии.",
	})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create entry with disabled comments: %v", err)
	}

	// 5. Ссылка без публикации во внешнем сервисе.
	if _, err := svc.CreateLink(ctx, &domain.Link{
		Title:          "The Go Programming Language",
		Slug:           "go",
		PubDate:        now,
		PostedByID:     "user-1",
		EnableComments: true,
		URL:            "https://go.dev/",
		Description:    "Официальный сайт.",
		Tags:           "go",
	}); err != nil {
		log.Fatalf("fillWithMockData: failed to create link: %v", err)
	}

	// 6. Комментарий к первой записи.
	if _, _, err := svc.SubmitComment(ctx, weblog.CommentInput{
		TargetType: domain.TargetEntry,
		TargetID:   first.ID,
		AuthorName: "reader",
		Body:       "Отличная запись!",
	}); err != nil {
		log.Fatalf("fillWithMockData: failed to create comment: %v", err)
	}

	log.Infof("Mock data filled successfully. Created entry %s, and entry with disabled comments %s", first.AbsoluteURL(), second.AbsoluteURL())
}
