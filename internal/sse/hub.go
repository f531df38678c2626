package sse

import (
	"sync"
)

// Event événement poussé aux clients connectés
type Event struct {
	EventType string `json:"event_type"`
	Data      string `json:"data"`
}

// Hub registre des connexions SSE par utilisateur. Un utilisateur peut avoir
// plusieurs onglets ouverts, chacun avec son propre canal. Le hub ne sert
// qu'à la notification temps réel ; l'historique vit en base.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[chan Event]struct{})}
}

// Register attache un canal pour un utilisateur et le retourne
func (h *Hub) Register(userID string) chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan Event]struct{})
	}
	h.clients[userID][ch] = struct{}{}
	return ch
}

// Unregister détache un canal et le ferme
func (h *Hub) Unregister(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		if _, ok := conns[ch]; ok {
			delete(conns, ch)
			close(ch)
		}
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// SendToUser pousse un événement à toutes les connexions d'un utilisateur.
// L'envoi est non bloquant : un client trop lent perd l'événement.
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Broadcast pousse un événement à tous les utilisateurs connectés
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for ch := range conns {
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// ConnectedUsers identifiants des utilisateurs actuellement connectés
func (h *Hub) ConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]string, 0, len(h.clients))
	for id := range h.clients {
		users = append(users, id)
	}
	return users
}
