package domain

import "time"

// Status - статус публикации записи.
type Status int

const (
	StatusLive   Status = 1
	StatusDraft  Status = 2
	StatusHidden Status = 3
)

// TargetType - тип объекта, к которому привязан комментарий.
type TargetType string

const (
	TargetEntry TargetType = "entry"
	TargetLink  TargetType = "link"
)

// Direction задает направление навигации по записям.
type Direction int

const (
	Next Direction = iota
	Previous
)

// Category представляет рубрику, к которой может относиться запись.
type Category struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title           string    `json:"title" gorm:"type:varchar(250);not null" validate:"required,max=250"`
	Slug            string    `json:"slug" gorm:"type:varchar(50);not null;uniqueIndex" validate:"required,max=50,slug"`
	Description     string    `json:"description" gorm:"type:text;not null" validate:"required"`
	DescriptionHTML string    `json:"descriptionHtml" gorm:"type:text"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

// Entry представляет запись в блоге.
//
// Текст хранится дважды: исходный (Excerpt, Body) и уже отрендеренный
// HTML (ExcerptHTML, BodyHTML), чтобы не конвертировать его при каждом показе.
type Entry struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title          string    `json:"title" gorm:"type:varchar(250);not null" validate:"required,max=250"`
	Slug           string    `json:"slug" gorm:"type:varchar(50);not null;uniqueIndex:idx_entries_slug_day" validate:"required,max=50,slug"`
	PubDate        time.Time `json:"pubDate" gorm:"not null;index"`
	PubDay         string    `json:"-" gorm:"type:varchar(10);not null;uniqueIndex:idx_entries_slug_day"`
	AuthorID       string    `json:"authorId" gorm:"type:varchar(255);not null" validate:"required"`
	Status         Status    `json:"status" gorm:"not null;index" validate:"oneof=1 2 3"`
	Featured       bool      `json:"featured" gorm:"not null"`
	EnableComments bool      `json:"enableComments" gorm:"not null"`
	Excerpt        string    `json:"excerpt" gorm:"type:text"`
	ExcerptHTML    string    `json:"excerptHtml" gorm:"type:text"`
	Body           string    `json:"body" gorm:"type:text;not null" validate:"required"`
	BodyHTML       string    `json:"bodyHtml" gorm:"type:text"`
	Tags           string    `json:"tags" gorm:"type:varchar(255)" validate:"max=255"`
	CategoryIDs    []string  `json:"categoryIds" gorm:"-"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Entry) TableName() string { return "entries" }

// IsLive сообщает, видна ли запись публично.
func (e *Entry) IsLive() bool { return e.Status == StatusLive }

// CommentsEnabled и PublishedAt нужны модератору комментариев.
func (e *Entry) CommentsEnabled() bool   { return e.EnableComments }
func (e *Entry) PublishedAt() time.Time { return e.PubDate }

// Day возвращает ключ дня публикации, в пределах которого slug уникален.
func (e *Entry) Day() string { return DayKey(e.PubDate) }

// Link представляет ссылку, опубликованную в блоге.
type Link struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title           string    `json:"title" gorm:"type:varchar(250);not null" validate:"required,max=250"`
	Slug            string    `json:"slug" gorm:"type:varchar(50);not null;uniqueIndex:idx_links_slug_day" validate:"required,max=50,slug"`
	PubDate         time.Time `json:"pubDate" gorm:"not null;index"`
	PubDay          string    `json:"-" gorm:"type:varchar(10);not null;uniqueIndex:idx_links_slug_day"`
	PostedByID      string    `json:"postedById" gorm:"type:varchar(255);not null" validate:"required"`
	EnableComments  bool      `json:"enableComments" gorm:"not null"`
	PostElsewhere   bool      `json:"postElsewhere" gorm:"not null"`
	URL             string    `json:"url" gorm:"type:varchar(200);not null;uniqueIndex" validate:"required,url,max=200"`
	Description     string    `json:"description" gorm:"type:text"`
	DescriptionHTML string    `json:"descriptionHtml" gorm:"type:text"`
	ViaName         string    `json:"viaName" gorm:"type:varchar(250)" validate:"max=250"`
	ViaURL          string    `json:"viaUrl" gorm:"type:varchar(200)" validate:"omitempty,url,max=200"`
	Tags            string    `json:"tags" gorm:"type:varchar(255)" validate:"max=255"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Link) TableName() string { return "links" }

func (l *Link) CommentsEnabled() bool   { return l.EnableComments }
func (l *Link) PublishedAt() time.Time { return l.PubDate }
func (l *Link) Day() string             { return DayKey(l.PubDate) }

// Comment представляет комментарий к записи или ссылке.
// IsPublic == false означает, что комментарий ждет модерации.
type Comment struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	TargetType  TargetType `json:"targetType" gorm:"type:varchar(16);not null;index:idx_comments_target"`
	TargetID    string     `json:"targetId" gorm:"type:varchar(36);not null;index:idx_comments_target"`
	AuthorName  string     `json:"authorName" gorm:"type:varchar(50);not null" validate:"required,max=50"`
	AuthorEmail string     `json:"authorEmail,omitempty" gorm:"type:varchar(255)" validate:"omitempty,email"`
	AuthorURL   string     `json:"authorUrl,omitempty" gorm:"type:varchar(200)" validate:"omitempty,url"`
	IPAddress   string     `json:"-" gorm:"type:varchar(45)"`
	UserAgent   string     `json:"-" gorm:"type:text"`
	Body        string     `json:"body" gorm:"type:text;not null" validate:"required,max=3000"`
	IsPublic    bool       `json:"isPublic" gorm:"not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"not null"`
}

func (Comment) TableName() string { return "comments" }

// DayKey форматирует дату публикации в ключ вида 2006-01-02.
// Дни считаются по UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
