package events

import (
	"encoding/json"
	"log"
)

// boardMessage is a marshalled event addressed to one board's room.
type boardMessage struct {
	boardID uint64
	payload []byte
}

// Hub maintains the per-board rooms of connected clients and routes events to
// them. The room registry is process-local and ephemeral; it is rebuilt as
// clients reconnect and is never persisted.
type Hub struct {
	rooms      map[uint64]map[*Client]bool
	broadcast  chan boardMessage
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint64]map[*Client]bool),
		broadcast:  make(chan boardMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Register subscribes a client to its board's room
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from its board's room
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish implements Publisher. Marshalling failures are logged and dropped;
// delivery is at-most-once.
func (h *Hub) Publish(boardID uint64, eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("Error marshalling %s event for board %d: %v", eventType, boardID, err)
		return
	}

	h.broadcast <- boardMessage{boardID: boardID, payload: payload}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			room := h.rooms[client.BoardID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.BoardID] = room
			}
			room[client] = true
			log.Printf("Client %s joined board %d", client.ID, client.BoardID)

		case client := <-h.unregister:
			if room, ok := h.rooms[client.BoardID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.Send)
					log.Printf("Client %s left board %d", client.ID, client.BoardID)
				}
				if len(room) == 0 {
					delete(h.rooms, client.BoardID)
				}
			}

		case message := <-h.broadcast:
			room := h.rooms[message.boardID]
			for client := range room {
				select {
				case client.Send <- message.payload:
				default:
					// Client's send buffer is full, assume disconnected
					log.Printf("Client %s send buffer full, removing from board %d", client.ID, client.BoardID)
					close(client.Send)
					delete(room, client)
				}
			}
			if len(room) == 0 {
				delete(h.rooms, message.boardID)
			}
		}
	}
}
