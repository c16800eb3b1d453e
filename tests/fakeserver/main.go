package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	listenAddr     = "127.0.0.1:18090"
	emitInterval   = 7 * time.Second
	replaceEvery   = 10
	timestampStyle = "2006-01-02T15:04:05.000000"
)

var sampleBarcodes = []string{
	"4006381333931",
	"96385074",
	"036000291452",
	"HELLO-123",
	"https://example.com/item/42",
	"00012345678905",
}

type scan struct {
	ID        string `json:"id"`
	ScannedAt string `json:"scanned_at"`
	Barcode   string `json:"barcode"`
	Username  string `json:"username"`
}

type backend struct {
	mu      sync.Mutex
	scans   map[string][]scan
	clients map[string]map[*websocket.Conn]struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func newBackend() *backend {
	return &backend{
		scans:   make(map[string][]scan),
		clients: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (b *backend) add(user, id, barcode string) scan {
	if id == "" {
		id = uuid.NewString()
	}
	s := scan{
		ID:        id,
		ScannedAt: time.Now().UTC().Format(timestampStyle),
		Barcode:   barcode,
		Username:  user,
	}
	b.mu.Lock()
	b.scans[user] = append(b.scans[user], s)
	b.mu.Unlock()
	b.broadcast(user, map[string]any{"type": "UpsertScans", "newScans": []scan{s}})
	return s
}

func (b *backend) list(user string) []scan {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]scan(nil), b.scans[user]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ScannedAt > out[j].ScannedAt })
	return out
}

func (b *backend) remove(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	touched := make(map[string][]string)

	b.mu.Lock()
	for user, scans := range b.scans {
		kept := scans[:0]
		for _, s := range scans {
			if _, ok := drop[s.ID]; ok {
				touched[user] = append(touched[user], s.ID)
				continue
			}
			kept = append(kept, s)
		}
		b.scans[user] = kept
	}
	b.mu.Unlock()

	for user, removed := range touched {
		b.broadcast(user, map[string]any{"type": "DeleteScans", "ids": removed})
	}
}

func (b *backend) clear(user string, olderThan *time.Duration) {
	var removed []string
	b.mu.Lock()
	kept := b.scans[user][:0]
	for _, s := range b.scans[user] {
		if olderThan != nil {
			at, err := time.Parse(timestampStyle, s.ScannedAt)
			if err == nil && time.Since(at) < *olderThan {
				kept = append(kept, s)
				continue
			}
		}
		removed = append(removed, s.ID)
	}
	b.scans[user] = kept
	b.mu.Unlock()

	if len(removed) > 0 {
		b.broadcast(user, map[string]any{"type": "DeleteScans", "ids": removed})
	}
}

func (b *backend) broadcast(user string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients[user] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(b.clients[user], conn)
		}
	}
}

func (b *backend) serveWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("username")
	if user == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	if b.clients[user] == nil {
		b.clients[user] = make(map[*websocket.Conn]struct{})
	}
	b.clients[user][conn] = struct{}{}
	b.mu.Unlock()
	fmt.Printf("ws: %s connected\n", user)

	// Drain until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	b.mu.Lock()
	delete(b.clients[user], conn)
	b.mu.Unlock()
	_ = conn.Close()
	fmt.Printf("ws: %s disconnected\n", user)
}

func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (b *backend) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{user}/scans", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.list(r.PathValue("user")))
	})
	mux.HandleFunc("DELETE /api/users/{user}/scans", func(w http.ResponseWriter, r *http.Request) {
		var olderThan *time.Duration
		if raw := r.URL.Query().Get("older_than_seconds"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "bad older_than_seconds", http.StatusBadRequest)
				return
			}
			d := time.Duration(secs) * time.Second
			olderThan = &d
		}
		b.clear(r.PathValue("user"), olderThan)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/scans/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.remove(req.IDs)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/scans", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Barcode  string `json:"barcode"`
			ID       string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		s := b.add(req.Username, req.ID, req.Barcode)
		_, _ = w.Write([]byte(s.ID))
	})
	mux.HandleFunc("/ws", b.serveWS)
	return mux
}

// emit plays a phone: every tick it scans a random barcode for each connected
// user and now and then pushes a full replace.
func (b *backend) emit(rng *rand.Rand) {
	ticker := time.NewTicker(emitInterval)
	defer ticker.Stop()
	for tick := 1; ; tick++ {
		<-ticker.C
		b.mu.Lock()
		users := make([]string, 0, len(b.clients))
		for user, conns := range b.clients {
			if len(conns) > 0 {
				users = append(users, user)
			}
		}
		b.mu.Unlock()

		for _, user := range users {
			b.add(user, "", sampleBarcodes[rng.Intn(len(sampleBarcodes))])
			if tick%replaceEvery == 0 {
				b.broadcast(user, map[string]any{"type": "ReplaceAllScans", "scans": b.list(user)})
			}
		}
	}
}

func main() {
	fmt.Println("=== BarcodeDrop fake backend ===")
	fmt.Printf("REST: http://%s/api | live: ws://%s/ws\n", listenAddr, listenAddr)

	b := newBackend()
	go b.emit(rand.New(rand.NewSource(time.Now().UnixNano())))

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           b.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Printf("FAILED: %v\n", err)
	}
}
