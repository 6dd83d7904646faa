package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
)

const (
	readWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// envelope は購読者へ届く全イベントの共通封筒。
type envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Hub は購読者接続の集合を管理し、イベントを全接続へ配信する。
// 配信はベストエフォートで、書き込みに失敗した接続はその場で取り除かれる。
// gorilla/websocket は接続ごとに書き手が1つしか許されないため、
// 配信全体を Hub のロックで直列化する（反復中の集合変更も同時に防ぐ）。
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewHub 空のハブを生成する。
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket は接続をアップグレードして購読者として登録する。
// 登録直後に user_joined を1度だけ送り、以降は配信のみを受ける。
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.register(conn)
	defer h.unregister(conn)

	log.Printf("[websocket] subscriber connected, total=%d", h.ClientCount())

	h.send(conn, envelope{
		Type:      "user_joined",
		Data:      map[string]string{"message": "接続が確立されました"},
		Timestamp: time.Now().UnixMilli(),
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	go h.pingLoop(ctx, conn)

	// 購読者からの受信内容は使わない。切断検知のために読み捨てる。
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
	}
}

// BroadcastNewMessage は感情付きメッセージを全購読者へ送る。
func (h *Hub) BroadcastNewMessage(msg chat.Message) {
	h.broadcast(envelope{
		Type:      "new_message",
		Data:      msg,
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastEmotionUpdate は全ユーザーの感情状態スナップショットを全購読者へ送る。
func (h *Hub) BroadcastEmotionUpdate(states []chat.UserEmotionState) {
	h.broadcast(envelope{
		Type:      "emotion_update",
		Data:      map[string]any{"emotions": states},
		Timestamp: time.Now().UnixMilli(),
	})
}

// ClientCount は現在の購読者数を返す。
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// broadcast は全接続へ書き込み、失敗した接続をその場で集合から外す。
// 1購読者の失敗が他の購読者への配信を止めることはない。
func (h *Hub) broadcast(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(env); err != nil {
			log.Printf("[websocket] write failed, dropping subscriber: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}

	log.Printf("[websocket] broadcast %s to %d subscribers", env.Type, len(h.clients))
}

// send は単一接続への送信。user_joined の応答確認に使う。
func (h *Hub) send(conn *websocket.Conn, env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := conn.WriteJSON(env); err != nil {
		log.Printf("[websocket] write failed: %v", err)
		delete(h.clients, conn)
	}
}

func (h *Hub) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 配信と書き込みが重ならないようロックを共有する。
			h.mu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			h.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
