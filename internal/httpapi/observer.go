package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/weblog-service/internal/domain"
)

// CommentObserver хранит каналы для подписчиков на комментарии.
type CommentObserver struct {
	mu sync.RWMutex
	//          map[target] map[subscriberID] channel
	subs map[string]map[string]chan *domain.Comment
}

// NewCommentObserver - конструктор для нашего наблюдателя.
func NewCommentObserver() *CommentObserver {
	return &CommentObserver{
		subs: make(map[string]map[string]chan *domain.Comment),
	}
}

func observerKey(t domain.TargetType, id string) string { return string(t) + ":" + id }

// Subscribe регистрирует подписчика на новые комментарии объекта.
// Возвращенную функцию нужно вызвать при отключении клиента.
func (o *CommentObserver) Subscribe(t domain.TargetType, id string) (<-chan *domain.Comment, func()) {
	key := observerKey(t, id)
	ch := make(chan *domain.Comment, 1)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[key] == nil {
		o.subs[key] = make(map[string]chan *domain.Comment)
	}
	o.subs[key][subID] = ch
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs[key], subID)
			if len(o.subs[key]) == 0 {
				delete(o.subs, key)
			}
			o.mu.Unlock()
			close(ch)
		})
	}
}

// Publish рассылает комментарий подписчикам. Не блокируется:
// если клиент не успевает читать, сообщение для него пропускается.
func (o *CommentObserver) Publish(c *domain.Comment) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.subs[observerKey(c.TargetType, c.TargetID)] {
		select {
		case ch <- c:
		default:
		}
	}
}
