// Package realtime keeps one websocket per connected device and pings it when
// new entry changes land on the server, so devices pull sooner than their
// periodic sync would. The sockets never carry the data itself; the sync
// protocol stays the single source of truth.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Hub struct {
	clients      map[string]*Client
	tenantIndex  map[string]map[string]bool
	clientsMutex sync.RWMutex
	Register     chan *Client
	Unregister   chan *Client
	writeWait    time.Duration
	pongWait     time.Duration
	pingPeriod   time.Duration
	log          zerolog.Logger
}

func NewHub(writeWait, pongWait, pingPeriod time.Duration, log zerolog.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		tenantIndex: make(map[string]map[string]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		writeWait:   writeWait,
		pongWait:    pongWait,
		pingPeriod:  pingPeriod,
		log:         log.With().Str("component", "realtime-hub").Logger(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if h.tenantIndex[client.Tenant] == nil {
		h.tenantIndex[client.Tenant] = make(map[string]bool)
	}
	h.clients[client.ID] = client
	h.tenantIndex[client.Tenant][client.ID] = true

	h.log.Debug().Str("client", client.ID).Str("device", client.DeviceID).Str("tenant", client.Tenant).Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	delete(h.tenantIndex[client.Tenant], client.ID)
	if len(h.tenantIndex[client.Tenant]) == 0 {
		delete(h.tenantIndex, client.Tenant)
	}
	close(client.Send)
	h.log.Debug().Str("client", client.ID).Msg("client unregistered")
}

// EntriesChanged pings every connected device. An empty tenant broadcasts to
// all of them; a named tenant reaches its devices plus those that connected
// without declaring one.
func (h *Hub) EntriesChanged(tenant string) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	message, err := json.Marshal(&Message{
		Type:      TypeEntriesChanged,
		Tenant:    tenant,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	for _, client := range h.clients {
		if tenant != "" && client.Tenant != "" && client.Tenant != tenant {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.log.Debug().Str("client", client.ID).Msg("send buffer full, dropping ping")
		}
	}
}

func (h *Hub) ConnectionCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}
