package web

import (
	"log"
	"net/http"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// commentMessage - то, что получают live-читатели на каждый новый комментарий.
type commentMessage struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"postId"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommentMessage(c *domain.Comment) commentMessage {
	msg := commentMessage{ID: c.ID, PostID: c.PostID, Text: c.Text, CreatedAt: c.CreatedAt}
	if c.Author != nil {
		msg.Author = c.Author.Name
	}
	return msg
}

// liveComments отдает новые комментарии поста через websocket.
func (s *Server) liveComments(w http.ResponseWriter, r *http.Request) {
	post := postFrom(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		log.Printf("live comments for post %d: %v", post.ID, err)
		return
	}
	defer conn.Close()
	// ReadTimeout сервера не должен рвать долгое соединение
	_ = conn.SetReadDeadline(time.Time{})

	feed, cancel := s.content.Observer().Subscribe(post.ID)
	defer cancel()

	// Клиент ничего не шлет, чтение нужно только чтобы заметить закрытие.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case c, ok := <-feed:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newCommentMessage(c)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
