package portfoliolive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/cskr/pubsub/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const VisitRejectedEvent = "VisitRejected"

const defaultEventsWriteTimeout = 10 * time.Second

type Server struct {
	port        string
	server      *gin.Engine
	httpServer  *http.Server
	events      *pubsub.PubSub[string, Event]
	tracker     *VisitTracker
	broadcaster *Broadcaster
	fs          http.FileSystem
	rateLimit   gin.HandlerFunc

	eventsWriteTimeout time.Duration
}

type incrementRequest struct {
	ClientID string `json:"clientId"`
}

func NewServerWithOptions(port string,
	events *pubsub.PubSub[string, Event],
	tracker *VisitTracker,
	broadcaster *Broadcaster,
	fs http.FileSystem,
	rate limiter.Rate) *Server {
	server := &Server{
		port:        port,
		server:      configureGin(),
		events:      events,
		tracker:     tracker,
		broadcaster: broadcaster,
		fs:          fs,
		rateLimit:   mgin.NewMiddleware(limiter.New(memory.NewStore(), rate)),

		eventsWriteTimeout: defaultEventsWriteTimeout,
	}
	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: server.server,
	}
	return server
}

func (s *Server) Handler() http.Handler {
	return s.server
}

// Run blocks until the server stops; after Shutdown it returns http.ErrServerClosed.
func (s *Server) Run() error {
	log.Printf("Server running at :%v", s.port)
	log.Printf("Visit the UI at %s", s.getUIUrl())
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.server.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/ui")
	})
	if s.fs != nil {
		s.server.StaticFS("/ui/", s.fs)
	}
	s.server.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "region": Region(), "instance": Instance()})
	})
	s.server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.server.GET("/ws", s.serveLiveUpdates)
	s.server.GET("/events", s.streamEvents)

	s.registerVisitorRoutes(s.server)
	api := s.server.Group("/api")
	s.registerVisitorRoutes(api)
	api.POST("/contact", s.rateLimit, s.submitContact)
}

// the widget calls /api/visitors, the bare paths serve older embeds
func (s *Server) registerVisitorRoutes(r gin.IRoutes) {
	r.GET("/visitors", s.getVisitors)
	r.POST("/visitors/increment", s.rateLimit, s.incrementVisitors)
}

func (s *Server) getVisitors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.tracker.Count()})
}

func (s *Server) incrementVisitors(c *gin.Context) {
	var req incrementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.rejectVisit(c, "invalid request body")
		return
	}

	visit, err := s.tracker.RecordVisit(req.ClientID)
	switch {
	case errors.Is(err, ErrInvalidInput):
		s.rejectVisit(c, "clientId is required")
		return
	case err != nil:
		log.Printf("Failed to record visit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record visit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": visit.Count})
}

func (s *Server) rejectVisit(c *gin.Context, msg string) {
	s.events.TryPub(NewEventWithReason(VisitRejectedEvent, msg), Topic)
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func (s *Server) serveLiveUpdates(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	sub := newWsSubscriber(conn)
	defer sub.Close()

	if err := s.broadcaster.Subscribe(sub); err != nil {
		log.Printf("Live viewer %s could not be registered: %v", sub.ID(), err)
		return
	}
	defer s.broadcaster.Unsubscribe(sub)
	log.Printf("Live viewer %s connected", sub.ID())

	sub.readUntilClosed()
	log.Printf("Live viewer %s disconnected", sub.ID())
}

func (s *Server) streamEvents(c *gin.Context) {
	c.Header("Connection", "Keep-Alive")
	c.Header("Keep-Alive", "timeout=10, max=1000")
	c.Header("Content-Type", "application/json; charset=utf-8")

	ctx := c.Request.Context()
	rc := http.NewResponseController(c.Writer)

	myEvents := s.events.Sub(Topic)
	defer func() {
		// Unsub needs the channel drained until it is closed
		go s.events.Unsub(myEvents, Topic)
		for range myEvents {
		}
	}()

	send := func(event Event) bool {
		// a reader that stops reading is cut off instead of piling up events
		if err := rc.SetWriteDeadline(time.Now().Add(s.eventsWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Printf("could not set the events write deadline: %v", err)
		}
		if err := streamOneEvent(c, event); err != nil {
			log.Printf("dropping events client: %v", err)
			return false
		}
		return true
	}

	if !send(NewSimpleEvent(StartedListeningEvent)) ||
		!send(NewEventWithParam(RevisionEvent, versioninfo.Revision)) ||
		!send(NewEventWithParam(TotalVisitorsEvent, s.tracker.Count())) {
		return
	}

	// callback returns false on end of processing
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			log.Printf("client disconnected")
			return false

		case event, ok := <-myEvents:
			if !ok {
				return false
			}
			return send(event)
		}
	})
}

func (s *Server) getUIUrl() string {
	baseUrl := "http://localhost"
	return fmt.Sprintf("%v:%v/ui", baseUrl, s.port)
}

func configureGin() *gin.Engine {
	return gin.Default()
}

// streamOneEvent writes one newline-terminated JSON event and flushes it.
func streamOneEvent(c *gin.Context, event any) error {
	if err := json.NewEncoder(c.Writer).Encode(event); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
