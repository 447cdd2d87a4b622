package portfoliolive

import (
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber pushes count messages over a websocket. Writes are
// serialized because gorilla allows one concurrent writer per connection.
type wsSubscriber struct {
	id     string
	conn   *websocket.Conn
	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
}

func newWsSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:     uuid.NewString(),
		conn:   conn,
		closed: make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string {
	return s.id
}

func (s *wsSubscriber) Send(msg VisitorCountMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// readUntilClosed blocks until the peer goes away. Viewers send nothing,
// reading only surfaces close frames and keeps pong handling alive.
func (s *wsSubscriber) readUntilClosed() {
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	go s.pingLoop()

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, net.ErrClosed) {
				log.Printf("Live viewer %s read error: %v", s.id, err)
			}
			return
		}
	}
}

func (s *wsSubscriber) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				log.Printf("Failed to ping live viewer %s: %v", s.id, err)
				s.Close()
				return
			}
		}
	}
}

func (s *wsSubscriber) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteTimeout))
}

func (s *wsSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}
