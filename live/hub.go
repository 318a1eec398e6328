package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"driza/models"
	"driza/store"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Client is one websocket subscriber watching a store path.
type Client struct {
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
}

type broadcastMsg struct {
	Topic string
	Data  []byte
}

// Hub fans store change snapshots out to websocket clients. A topic is a
// store path — a listing collection or a chat thread — and its backing
// subscription is opened lazily when the first client arrives. Clients get
// the current snapshot on connect and a fresh one after every change.
type Hub struct {
	store      store.Store
	topics     map[string]map[*Client]bool
	watched    map[string]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	stops      []func()
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub(st store.Store) *Hub {
	return &Hub{
		store:      st,
		topics:     make(map[string]map[*Client]bool),
		watched:    make(map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

// Run pumps events to clients. Blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.topics[c.Topic] == nil {
				h.topics[c.Topic] = make(map[*Client]bool)
			}
			h.topics[c.Topic][c] = true
			h.mu.Unlock()
			h.watch(c.Topic)

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.topics[c.Topic]; conns != nil && conns[c] {
				delete(conns, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.topics[m.Topic] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.topics[m.Topic], c)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

// watch opens the store subscription backing a topic, once per topic.
func (h *Hub) watch(topic string) {
	h.mu.Lock()
	if h.watched[topic] {
		h.mu.Unlock()
		return
	}
	h.watched[topic] = true
	h.mu.Unlock()

	stop, err := h.store.Subscribe(topic, func(ev store.Event) {
		payload, err := json.Marshal(map[string]any{
			"topic": topic,
			"value": ev.Value,
		})
		if err != nil {
			return
		}
		select {
		case h.broadcast <- broadcastMsg{Topic: topic, Data: payload}:
		case <-h.done:
		}
	})
	if err != nil {
		log.Printf("live: subscribe %s: %v", topic, err)
		return
	}

	h.mu.Lock()
	h.stops = append(h.stops, stop)
	h.mu.Unlock()
}

// Stop cancels the store subscriptions and disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	stops := h.stops
	h.stops = nil
	h.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.topics {
		for c := range conns {
			close(c.Send)
			delete(conns, c)
		}
	}
}

// drop unregisters a client, giving up when the hub has already stopped so
// pump goroutines never block on a dead hub.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS handles GET /ws/listings/:type
func ServeWS(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		topic := ps.ByName("type")
		if !models.ValidListingType(topic) {
			http.Error(w, "Unknown listing type", http.StatusBadRequest)
			return
		}
		serveTopic(hub, w, r, topic)
	}
}

// ServeChat handles GET /ws/chats/:id — the live view of one listing's
// message thread.
func ServeChat(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if id == "" {
			http.Error(w, "Listing id required", http.StatusBadRequest)
			return
		}
		serveTopic(hub, w, r, store.ThreadPath(id))
	}
}

func serveTopic(hub *Hub, w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: upgrade: %v", err)
		return
	}

	client := &Client{Conn: conn, Send: make(chan []byte, 16), Topic: topic}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go writePump(client)
	go readPump(hub, client)
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func readPump(h *Hub, c *Client) {
	defer func() {
		h.drop(c)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
