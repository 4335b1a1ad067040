package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultAPIURL = "https://drinkcrabigator.com/api"

const (
	minReconnectBackoff = time.Second
	maxReconnectBackoff = 30 * time.Second
)

// Status summarizes the connection for the status band / mirror to show.
type Status struct {
	Connected         bool
	ReconnectAttempts int
	BackoffSeconds    int
	QueueLen          int
}

// Client streams one session's events to the cloud over a WebSocket,
// registering the device and session via HTTP first. It tolerates the
// cloud being unreachable: events queue to disk and the WebSocket
// reconnects with exponential backoff.
type Client struct {
	device *DeviceIdentity
	http   *http.Client
	apiURL string
	logger *zap.Logger

	queue *OfflineQueue

	mu               sync.Mutex
	sessionID        string
	wsURL            string
	conn             *websocket.Conn
	sendCh           chan queuedEvent
	answerCh         chan string
	deviceRegistered bool

	connected         atomic.Bool
	reconnectBackoff  time.Duration
	reconnectAttempts int
	lastAttempt       time.Time
	pendingConn       chan connectResult
}

type connectResult struct {
	conn *websocket.Conn
	err  error
}

// New builds a Client, loading or creating the local device identity and
// offline queue.
func New(logger *zap.Logger) (*Client, error) {
	device, err := LoadOrCreateDevice()
	if err != nil {
		return nil, fmt.Errorf("load device identity: %w", err)
	}
	queue, err := NewOfflineQueue()
	if err != nil {
		return nil, fmt.Errorf("load offline queue: %w", err)
	}
	return &Client{
		device:           device,
		http:             &http.Client{Timeout: 30 * time.Second},
		apiURL:           defaultAPIURL,
		logger:           logger,
		queue:            queue,
		reconnectBackoff: minReconnectBackoff,
	}, nil
}

// WithAPIURL overrides the default API base URL, for testing against a
// local server.
func (c *Client) WithAPIURL(url string) *Client {
	c.apiURL = url
	return c
}

// DeviceID returns this machine's device identifier.
func (c *Client) DeviceID() string {
	return c.device.DeviceID
}

// SessionID returns the cloud-assigned session id, once registered.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// IsConnected reports whether the WebSocket is currently up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Status reports the current connection state for display.
func (c *Client) Status() Status {
	c.mu.Lock()
	attempts := c.reconnectAttempts
	backoff := c.reconnectBackoff
	c.mu.Unlock()
	return Status{
		Connected:         c.IsConnected(),
		ReconnectAttempts: attempts,
		BackoffSeconds:    int(backoff.Seconds()),
		QueueLen:          c.queue.Len(),
	}
}

// RegisterDevice registers this device with the cloud. Idempotent.
func (c *Client) RegisterDevice(ctx context.Context) error {
	c.mu.Lock()
	if c.deviceRegistered {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	body := map[string]any{
		"device_id":   c.device.DeviceID,
		"secret_hash": c.device.SecretHash(),
		"name":        c.device.Name,
	}
	if err := c.postJSON(ctx, "/devices", nil, body, nil); err != nil {
		return fmt.Errorf("register device: %w", err)
	}

	c.mu.Lock()
	c.deviceRegistered = true
	c.mu.Unlock()
	return nil
}

type createSessionResponse struct {
	ID    string `json:"id"`
	WSURL string `json:"ws_url"`
}

// RegisterSession registers a new session and opens the WebSocket, draining
// any events queued from a prior offline period.
func (c *Client) RegisterSession(ctx context.Context, clientSessionID, cwd, platform string) (string, error) {
	if err := c.RegisterDevice(ctx); err != nil {
		return "", err
	}

	body := map[string]string{
		"client_session_id": clientSessionID,
		"cwd":               cwd,
		"platform":          platform,
	}
	headers := c.device.AuthHeaders(http.MethodPost, "/api/sessions")

	var resp createSessionResponse
	if err := c.postJSON(ctx, "/sessions", headers, body, &resp); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	c.mu.Lock()
	c.sessionID = resp.ID
	c.wsURL = resp.WSURL
	c.mu.Unlock()

	if err := c.connectWebSocket(ctx, resp.WSURL); err != nil {
		return "", fmt.Errorf("connect websocket: %w", err)
	}
	c.drainQueue()

	return resp.ID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) connectWebSocket(ctx context.Context, wsURL string) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	timestamp := time.Now().UnixMilli()
	message := fmt.Sprintf("GET:/api/sessions/%s/connect:%d", sessionID, timestamp)
	signature := c.device.Sign(message)

	header := http.Header{}
	header.Set("X-Device-Id", c.device.DeviceID)
	header.Set("X-Signature", signature)
	header.Set("X-Timestamp", fmt.Sprintf("%d", timestamp))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}

	c.attachConn(conn)
	return nil
}

// attachConn wires a freshly dialed connection into the client, spawning
// its read/write pumps and resetting reconnect state.
func (c *Client) attachConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.sendCh = make(chan queuedEvent, 100)
	c.answerCh = make(chan string, 16)
	sendCh := c.sendCh
	answerCh := c.answerCh
	c.mu.Unlock()

	c.connected.Store(true)
	c.mu.Lock()
	c.reconnectBackoff = minReconnectBackoff
	c.reconnectAttempts = 0
	c.mu.Unlock()

	go c.writePump(conn, sendCh)
	go c.readPump(conn, answerCh)
}

func (c *Client) writePump(conn *websocket.Conn, sendCh chan queuedEvent) {
	for event := range sendCh {
		if err := conn.WriteMessage(websocket.TextMessage, event.Payload); err != nil {
			if c.logger != nil {
				c.logger.Warn("cloud websocket write failed", zap.Error(err))
			}
			c.connected.Store(false)
			return
		}
	}
}

func (c *Client) readPump(conn *websocket.Conn, answerCh chan<- string) {
	defer c.connected.Store(false)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("cloud websocket closed", zap.Error(err))
			}
			return
		}
		var msg ToDesktopMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "answer":
			select {
			case answerCh <- msg.Text:
			default:
			}
		case "ping":
		}
	}
}

// TryReconnect attempts to restore a dropped connection without blocking
// the caller: it starts (or checks on) a background dial and reports
// whether the client is connected once this call returns.
func (c *Client) TryReconnect() bool {
	if c.IsConnected() {
		return true
	}

	c.mu.Lock()
	pending := c.pendingConn
	c.mu.Unlock()

	if pending != nil {
		select {
		case result := <-pending:
			c.mu.Lock()
			c.pendingConn = nil
			c.mu.Unlock()
			if result.err != nil {
				if c.logger != nil {
					c.logger.Warn("cloud reconnect failed", zap.Error(result.err))
				}
				c.mu.Lock()
				c.reconnectBackoff = minDuration(c.reconnectBackoff*2, maxReconnectBackoff)
				c.lastAttempt = time.Now()
				c.mu.Unlock()
				return false
			}
			c.attachConn(result.conn)
			c.drainQueue()
			return true
		default:
			return false
		}
	}

	c.mu.Lock()
	wsURL := c.wsURL
	sessionID := c.sessionID
	backoff := c.reconnectBackoff
	lastAttempt := c.lastAttempt
	c.mu.Unlock()

	if wsURL == "" || sessionID == "" {
		return false
	}
	if !lastAttempt.IsZero() && time.Since(lastAttempt) < backoff {
		return false
	}

	c.mu.Lock()
	c.lastAttempt = time.Now()
	c.reconnectAttempts++
	resultCh := make(chan connectResult, 1)
	c.pendingConn = resultCh
	c.mu.Unlock()

	timestamp := time.Now().UnixMilli()
	message := fmt.Sprintf("GET:/api/sessions/%s/connect:%d", sessionID, timestamp)
	signature := c.device.Sign(message)
	header := http.Header{}
	header.Set("X-Device-Id", c.device.DeviceID)
	header.Set("X-Signature", signature)
	header.Set("X-Timestamp", fmt.Sprintf("%d", timestamp))

	go func() {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		resultCh <- connectResult{conn: conn, err: err}
	}()

	return false
}

// SendEvent sends an event if connected, otherwise attempts a reconnect and
// falls back to queuing it for later delivery.
func (c *Client) SendEvent(kind string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	queued := queuedEvent{Kind: kind, Payload: data, QueuedAt: time.Now().UnixMilli()}

	if c.trySend(queued) {
		return
	}
	if c.TryReconnect() && c.trySend(queued) {
		return
	}
	c.queue.Enqueue(kind, payload)
}

func (c *Client) trySend(event queuedEvent) bool {
	if !c.IsConnected() {
		return false
	}
	c.mu.Lock()
	ch := c.sendCh
	c.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}

// TryRecvAnswer returns a queued mobile answer, if any arrived.
func (c *Client) TryRecvAnswer() (string, bool) {
	c.mu.Lock()
	ch := c.answerCh
	c.mu.Unlock()
	if ch == nil {
		return "", false
	}
	select {
	case answer := <-ch:
		return answer, true
	default:
		return "", false
	}
}

func (c *Client) drainQueue() {
	for _, event := range c.queue.Drain() {
		if !c.trySend(event) {
			c.mu.Lock()
			ch := c.sendCh
			c.mu.Unlock()
			if ch != nil {
				ch <- event
			}
		}
	}
}

type updateSessionStats struct {
	Prompts         int    `json:"prompts"`
	Completions     int    `json:"completions"`
	ToolCalls       int    `json:"tool_calls"`
	ThinkingSeconds uint64 `json:"thinking_seconds"`
	WorkSeconds     uint64 `json:"work_seconds"`
}

type updateSessionRequest struct {
	EndedAt *int64              `json:"ended_at,omitempty"`
	State   *string             `json:"state,omitempty"`
	Stats   *updateSessionStats `json:"stats,omitempty"`
}

// UpdateState patches the session's state on the cloud.
func (c *Client) UpdateState(ctx context.Context, state string) error {
	return c.sendSessionUpdate(ctx, updateSessionRequest{State: &state})
}

// SpawnUpdateState fires UpdateState in the background, logging failures
// rather than blocking the caller's render/poll loop on network latency.
func (c *Client) SpawnUpdateState(state string) {
	go func() {
		if err := c.UpdateState(context.Background(), state); err != nil && c.logger != nil {
			c.logger.Warn("cloud state update failed", zap.Error(err))
		}
	}()
}

// SpawnUpdateStats fires UpdateStats in the background.
func (c *Client) SpawnUpdateStats(prompts, completions, toolCalls int, thinkingSeconds, workSeconds uint64) {
	go func() {
		if err := c.UpdateStats(context.Background(), prompts, completions, toolCalls, thinkingSeconds, workSeconds); err != nil && c.logger != nil {
			c.logger.Warn("cloud stats update failed", zap.Error(err))
		}
	}()
}

// UpdateStats patches the session's activity counters on the cloud.
func (c *Client) UpdateStats(ctx context.Context, prompts, completions, toolCalls int, thinkingSeconds, workSeconds uint64) error {
	stats := updateSessionStats{Prompts: prompts, Completions: completions, ToolCalls: toolCalls, ThinkingSeconds: thinkingSeconds, WorkSeconds: workSeconds}
	return c.sendSessionUpdate(ctx, updateSessionRequest{Stats: &stats})
}

// EndSession marks the session ended along with its final stats.
func (c *Client) EndSession(ctx context.Context, prompts, completions, toolCalls int, thinkingSeconds, workSeconds uint64) error {
	ended := time.Now().Unix()
	stats := updateSessionStats{Prompts: prompts, Completions: completions, ToolCalls: toolCalls, ThinkingSeconds: thinkingSeconds, WorkSeconds: workSeconds}
	return c.sendSessionUpdate(ctx, updateSessionRequest{EndedAt: &ended, Stats: &stats})
}

func (c *Client) sendSessionUpdate(ctx context.Context, update updateSessionRequest) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return fmt.Errorf("no session registered")
	}

	headers := c.device.AuthHeaders(http.MethodPatch, fmt.Sprintf("/api/sessions/%s", sessionID))
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, fmt.Sprintf("%s/sessions/%s", c.apiURL, sessionID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("update session: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Close flushes the offline queue and closes the WebSocket if open.
func (c *Client) Close() {
	c.queue.Flush()
	c.mu.Lock()
	conn := c.conn
	sendCh := c.sendCh
	c.conn = nil
	c.sendCh = nil
	c.mu.Unlock()
	if sendCh != nil {
		close(sendCh)
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
