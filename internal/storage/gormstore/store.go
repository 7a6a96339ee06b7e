package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/google/uuid"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// entryCategory - строка таблицы связи записей и рубрик.
type entryCategory struct {
	EntryID    string `gorm:"type:varchar(36);primaryKey"`
	CategoryID string `gorm:"type:varchar(36);primaryKey;index"`
}

func (entryCategory) TableName() string { return "entry_categories" }

// Store реализует интерфейс Storage поверх GORM (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New открывает соединение и выполняет миграцию схемы.
func New(dialector gorm.Dialector, logLevel logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Category{}, &domain.Entry{}, &domain.Link{}, &entryCategory{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenPostgres создает хранилище PostgreSQL.
func OpenPostgres(dsn string, logLevel logger.LogLevel) (*Store, error) {
	return New(postgres.Open(dsn), logLevel)
}

// OpenSQLite создает хранилище в файле SQLite.
func OpenSQLite(path string, logLevel logger.LogLevel) (*Store, error) {
	return New(sqlite.Open(path+"?_foreign_keys=on"), logLevel)
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// duplicate переводит нарушение уникального индекса в доменную ошибку.
// Основная проверка делается запросом внутри транзакции, индекс страхует гонки.
func duplicate(err error, as error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return as
	}
	return err
}

func exists(tx *gorm.DB, model any, id string) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// === Category Methods ===

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategorySlug(tx, c); err != nil {
			return err
		}
		return duplicate(tx.Create(c).Error, storage.ErrDuplicateCategorySlug)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &domain.Category{}, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		if err := checkCategorySlug(tx, c); err != nil {
			return err
		}
		return duplicate(tx.Save(c).Error, storage.ErrDuplicateCategorySlug)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func checkCategorySlug(tx *gorm.DB, c *domain.Category) error {
	var n int64
	err := tx.Model(&domain.Category{}).Where("slug = ? AND id <> ?", c.Slug, c.ID).Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return storage.ErrDuplicateCategorySlug
	}
	return nil
}

// DeleteCategory удаляет рубрику вместе со связями с записями.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&entryCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := s.db.WithContext(ctx).Take(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := s.db.WithContext(ctx).Take(&c, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := s.db.WithContext(ctx).Order("title ASC").Order("id ASC").Find(&categories).Error
	return categories, err
}

// === Entry Methods ===

func (s *Store) CreateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.PubDate = e.PubDate.UTC()
	e.PubDay = e.Day()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEntry(tx, e); err != nil {
			return err
		}
		if err := tx.Create(e).Error; err != nil {
			return duplicate(err, storage.ErrDuplicateSlug)
		}
		return replaceEntryCategories(tx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	e.PubDate = e.PubDate.UTC()
	e.PubDay = e.Day()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &domain.Entry{}, e.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		if err := checkEntry(tx, e); err != nil {
			return err
		}
		if err := tx.Save(e).Error; err != nil {
			return duplicate(err, storage.ErrDuplicateSlug)
		}
		return replaceEntryCategories(tx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func checkEntry(tx *gorm.DB, e *domain.Entry) error {
	var n int64
	err := tx.Model(&domain.Entry{}).
		Where("slug = ? AND pub_day = ? AND id <> ?", e.Slug, e.PubDay, e.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return storage.ErrDuplicateSlug
	}

	ids := uniqueIDs(e.CategoryIDs)
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&domain.Category{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return storage.ErrUnknownCategory
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func replaceEntryCategories(tx *gorm.DB, e *domain.Entry) error {
	if err := tx.Where("entry_id = ?", e.ID).Delete(&entryCategory{}).Error; err != nil {
		return err
	}
	ids := uniqueIDs(e.CategoryIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]entryCategory, len(ids))
	for i, cid := range ids {
		rows[i] = entryCategory{EntryID: e.ID, CategoryID: cid}
	}
	return tx.Create(&rows).Error
}

// loadCategoryIDs заполняет CategoryIDs одним запросом на все записи.
func loadCategoryIDs(db *gorm.DB, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	var rows []entryCategory
	if err := db.Where("entry_id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	byEntry := make(map[string][]string, len(entries))
	for _, r := range rows {
		byEntry[r.EntryID] = append(byEntry[r.EntryID], r.CategoryID)
	}
	for _, e := range entries {
		cids := byEntry[e.ID]
		sort.Strings(cids)
		e.CategoryIDs = cids
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&entryCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Entry{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) getEntry(ctx context.Context, query string, args ...any) (*domain.Entry, error) {
	db := s.db.WithContext(ctx)
	var e domain.Entry
	if err := db.Where(query, args...).Take(&e).Error; err != nil {
		return nil, notFound(err)
	}
	if err := loadCategoryIDs(db, []*domain.Entry{&e}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetEntryByID(ctx context.Context, id string) (*domain.Entry, error) {
	return s.getEntry(ctx, "id = ?", id)
}

func (s *Store) GetEntryByDate(ctx context.Context, day time.Time, slug string) (*domain.Entry, error) {
	return s.getEntry(ctx, "slug = ? AND pub_day = ?", slug, domain.DayKey(day))
}

func (s *Store) ListEntries(ctx context.Context, f storage.EntryFilter) ([]*domain.Entry, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&domain.Entry{})
	if f.Status != 0 {
		query = query.Where("status = ?", int(f.Status))
	}
	if f.CategoryID != "" {
		sub := db.Model(&entryCategory{}).Select("entry_id").Where("category_id = ?", f.CategoryID)
		query = query.Where("id IN (?)", sub)
	}
	if from, to, ok := storage.DateRange(f.Year, f.Month, f.Day); ok {
		query = query.Where("pub_date >= ? AND pub_date < ?", from, to)
	}
	query = query.Order("pub_date DESC").Order("id DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var entries []*domain.Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	if err := loadCategoryIDs(db, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) LiveEntries(ctx context.Context, categoryID string) ([]*domain.Entry, error) {
	return s.ListEntries(ctx, storage.EntryFilter{Status: domain.StatusLive, CategoryID: categoryID})
}

// AdjacentLiveEntry упорядочивает записи по (pub_date, id), как и in-memory хранилище.
func (s *Store) AdjacentLiveEntry(ctx context.Context, e *domain.Entry, dir domain.Direction) (*domain.Entry, error) {
	db := s.db.WithContext(ctx)
	pub := e.PubDate.UTC()
	query := db.Where("status = ? AND id <> ?", int(domain.StatusLive), e.ID)
	switch dir {
	case domain.Next:
		query = query.Where("pub_date > ? OR (pub_date = ? AND id > ?)", pub, pub, e.ID).
			Order("pub_date ASC").Order("id ASC")
	case domain.Previous:
		query = query.Where("pub_date < ? OR (pub_date = ? AND id < ?)", pub, pub, e.ID).
			Order("pub_date DESC").Order("id DESC")
	default:
		return nil, fmt.Errorf("unknown direction %d", dir)
	}

	var adjacent domain.Entry
	if err := query.Limit(1).Take(&adjacent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := loadCategoryIDs(db, []*domain.Entry{&adjacent}); err != nil {
		return nil, err
	}
	return &adjacent, nil
}

// === Link Methods ===

func (s *Store) CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.PubDate = l.PubDate.UTC()
	l.PubDay = l.Day()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkLink(tx, l); err != nil {
			return err
		}
		return duplicate(tx.Create(l).Error, storage.ErrDuplicateSlug)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) UpdateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	l.PubDate = l.PubDate.UTC()
	l.PubDay = l.Day()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &domain.Link{}, l.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		if err := checkLink(tx, l); err != nil {
			return err
		}
		return duplicate(tx.Save(l).Error, storage.ErrDuplicateSlug)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func checkLink(tx *gorm.DB, l *domain.Link) error {
	var n int64
	if err := tx.Model(&domain.Link{}).Where("url = ? AND id <> ?", l.URL, l.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return storage.ErrDuplicateURL
	}
	err := tx.Model(&domain.Link{}).
		Where("slug = ? AND pub_day = ? AND id <> ?", l.Slug, l.PubDay, l.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return storage.ErrDuplicateSlug
	}
	return nil
}

func (s *Store) DeleteLink(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Link{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetLinkByID(ctx context.Context, id string) (*domain.Link, error) {
	var l domain.Link
	if err := s.db.WithContext(ctx).Take(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) GetLinkByDate(ctx context.Context, day time.Time, slug string) (*domain.Link, error) {
	var l domain.Link
	err := s.db.WithContext(ctx).Take(&l, "slug = ? AND pub_day = ?", slug, domain.DayKey(day)).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) ListLinks(ctx context.Context, f storage.LinkFilter) ([]*domain.Link, error) {
	query := s.db.WithContext(ctx).Model(&domain.Link{})
	if from, to, ok := storage.DateRange(f.Year, f.Month, f.Day); ok {
		query = query.Where("pub_date >= ? AND pub_date < ?", from, to)
	}
	query = query.Order("pub_date DESC").Order("id DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	var links []*domain.Link
	err := query.Find(&links).Error
	return links, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	// Проверяем существование объекта комментария и создаем комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model any
		switch c.TargetType {
		case domain.TargetEntry:
			model = &domain.Entry{}
		case domain.TargetLink:
			model = &domain.Link{}
		default:
			return storage.ErrNotFound
		}
		ok, err := exists(tx, model, c.TargetID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) GetCommentsByTarget(ctx context.Context, targetType domain.TargetType, targetID string, publicOnly bool) ([]*domain.Comment, error) {
	query := s.db.WithContext(ctx).Where("target_type = ? AND target_id = ?", string(targetType), targetID)
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	var comments []*domain.Comment
	err := query.Order("created_at ASC").Find(&comments).Error
	return comments, err
}

// === Dataloader Method ===

func (s *Store) CountComments(ctx context.Context, targetType domain.TargetType, targetIDs []string, publicOnly bool) (map[string]int, error) {
	counts := make(map[string]int, len(targetIDs))
	for _, id := range targetIDs {
		counts[id] = 0
	}
	if len(targetIDs) == 0 {
		return counts, nil
	}

	query := s.db.WithContext(ctx).Model(&domain.Comment{}).
		Select("target_id, COUNT(*) AS n").
		Where("target_type = ? AND target_id IN ?", string(targetType), targetIDs)
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}

	var rows []struct {
		TargetID string
		N        int
	}
	if err := query.Group("target_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.TargetID] = r.N
	}
	return counts, nil
}
