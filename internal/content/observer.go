package content

import (
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/blog-service/internal/domain"
)

// Observer рассылает новые комментарии live-подписчикам поста.
type Observer struct {
	mu sync.RWMutex
	//   map[postID] map[subscriberID] channel
	subs map[uint]map[string]chan *domain.Comment
}

// NewObserver - конструктор наблюдателя без подписчиков.
func NewObserver() *Observer {
	return &Observer{
		subs: make(map[uint]map[string]chan *domain.Comment),
	}
}

// Subscribe подписывает на комментарии к postID. cancel нужно вызвать, когда
// подписчик уходит, он закрывает канал.
func (o *Observer) Subscribe(postID uint) (<-chan *domain.Comment, func()) {
	ch := make(chan *domain.Comment, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan *domain.Comment)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			if postSubs, ok := o.subs[postID]; ok {
				delete(postSubs, subID)
				if len(postSubs) == 0 {
					delete(o.subs, postID)
				}
			}
			o.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish без блокировки отдает c каждому подписчику его поста.
// Подписчик с заполненным буфером комментарий пропускает.
func (o *Observer) Publish(c *domain.Comment) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs[c.PostID] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers возвращает число подписчиков postID.
func (o *Observer) Subscribers(postID uint) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
