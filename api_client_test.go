package portfoliolive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/Arceliar/phony"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// ApiClient talks to a running server over HTTP and keeps every event it
// has seen on the /events stream.
type ApiClient struct {
	phony.Inbox
	baseUrl         string
	c               *resty.Client
	currentReader   io.ReadCloser
	currentBuffer   []byte
	currentResponse *resty.Response
	cancel          context.CancelFunc
	receivedEvents  []ReceivedEvent
}

type countResponse struct {
	Count int64 `json:"count"`
}

func NewApiClient(baseUrl string) *ApiClient {
	client := &ApiClient{
		baseUrl:       baseUrl,
		c:             resty.New().SetBaseURL(baseUrl).SetTimeout(1 * time.Second),
		currentBuffer: make([]byte, 0),
		cancel:        func() {},
	}
	go client.subscribeToEvents()
	return client
}

func (a *ApiClient) GetCount() (int64, error) {
	var count countResponse
	res, err := a.c.R().SetResult(&count).Get("/api/visitors")
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, fmt.Errorf("unexpected status reading the count: %v", res.Status())
	}
	return count.Count, nil
}

// Increment returns the count reported by the server and the HTTP status.
func (a *ApiClient) Increment(clientID string) (int64, int, error) {
	var count countResponse
	res, err := a.c.
		R().
		SetBody(incrementRequest{ClientID: clientID}).
		SetResult(&count).
		Post("/api/visitors/increment")
	if err != nil {
		return 0, 0, err
	}
	return count.Count, res.StatusCode(), nil
}

func (a *ApiClient) WaitForEventSeen(eventName string) error {
	var found bool
	log.Printf("Waiting for event '%s' ...", eventName)
	for i := 0; i < 10; i++ {
		phony.Block(a, func() {
			found = slices.ContainsFunc(a.receivedEvents, func(c ReceivedEvent) bool {
				return c.Name == eventName
			})
		})
		if found {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("gave up waiting for event: %v", eventName)
}

func (a *ApiClient) BaseUrl() string {
	return a.baseUrl
}

func (a *ApiClient) subscribeToEvents() {
	a.Act(a, func() {
		a.tryCloseCurrentReaderSync()

		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel

		var err error
		a.currentResponse, err = a.c.
			R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get("/events")
		if err != nil {
			log.Println("Error subscribing to events:", err)
			return
		}
		a.currentReader = a.currentResponse.RawResponse.Body
		a.scheduleNextReadSync()
	})
}

func (a *ApiClient) readNextEvent() {
	a.Act(a, func() {
		if a.currentReader == nil {
			return
		}

		buf := make([]byte, 1024)
		n, err := a.currentReader.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Println("error reading event stream", err)
			}
			a.tryCloseCurrentReaderSync()
			return
		}
		a.currentBuffer = append(a.currentBuffer, buf[:n]...)
		if err := a.tryExtractEventsSync(); err != nil {
			log.Println(err)
		}
	})
}

func (a *ApiClient) scheduleNextReadSync() {
	go func() {
		time.Sleep(10 * time.Millisecond)
		a.readNextEvent()
	}()
}

func (a *ApiClient) Close() {
	a.cancel()
	a.Act(a, func() {
		a.tryCloseCurrentReaderSync()
	})
}

func (a *ApiClient) tryCloseCurrentReaderSync() {
	if a.currentReader == nil {
		return
	}
	a.currentReader.Close()
	a.currentReader = nil
	a.currentBuffer = make([]byte, 0)
	a.currentResponse = nil
}

func (a *ApiClient) tryExtractEventsSync() error {
	for {
		newlinePos := slices.Index(a.currentBuffer, '\n')
		if newlinePos == -1 {
			break
		}

		eventLine := a.currentBuffer[:newlinePos]
		a.currentBuffer = a.currentBuffer[newlinePos+1:]

		var event ReceivedEvent
		if err := json.Unmarshal(eventLine, &event); err != nil {
			// fail fast
			return fmt.Errorf("error unmarshalling event: %v", err)
		}
		a.receivedEvents = append(a.receivedEvents, event)
	}
	a.scheduleNextReadSync()
	return nil
}

type ReceivedEvent struct {
	Timestamp  string                 `json:"timestamp"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties"`
}

// LiveViewer is a widget connected to /ws.
type LiveViewer struct {
	phony.Inbox
	conn     *websocket.Conn
	received []VisitorCountMessage
}

func NewLiveViewer(baseUrl string) (*LiveViewer, error) {
	wsUrl := "ws" + strings.TrimPrefix(baseUrl, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	if err != nil {
		return nil, err
	}
	viewer := &LiveViewer{conn: conn}
	go viewer.readForever()
	return viewer, nil
}

func (v *LiveViewer) readForever() {
	for {
		var msg VisitorCountMessage
		if err := v.conn.ReadJSON(&msg); err != nil {
			return
		}
		v.Act(nil, func() {
			v.received = append(v.received, msg)
		})
	}
}

func (v *LiveViewer) Latest() (int64, bool) {
	var latest int64
	var ok bool
	phony.Block(v, func() {
		if len(v.received) > 0 {
			latest = v.received[len(v.received)-1].Count
			ok = true
		}
	})
	return latest, ok
}

func (v *LiveViewer) WaitForCount(expected int64) error {
	for i := 0; i < 20; i++ {
		if latest, ok := v.Latest(); ok && latest >= expected {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	latest, _ := v.Latest()
	return fmt.Errorf("gave up waiting for the count %d, latest seen: %d", expected, latest)
}

func (v *LiveViewer) Close() {
	v.conn.Close()
}
