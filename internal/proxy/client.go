// Package proxy は上流RADIUSサーバーへのAccess-Request委譲クライアントを提供する。
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"layeh.com/radius"

	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

// センチネルエラー
var (
	// ErrDuplicateRequest は同一識別子・同一上流への問い合わせが既に進行中
	ErrDuplicateRequest = errors.New("duplicate request in flight")

	// ErrClientClosed はクライアントがClose済み
	ErrClientClosed = errors.New("proxy client closed")

	// ErrTimeout は上流からの応答タイムアウト
	ErrTimeout = errors.New("upstream radius timeout")
)

// maxDatagramSize はRADIUSパケットの最大長（RFC 2865）
const maxDatagramSize = 4096

// pendingKey は進行中の問い合わせを一意に識別する
type pendingKey struct {
	identifier byte
	addr       string
}

// Client は単一UDPソケットを共有する上流RADIUSクライアント。
// 受信ループが応答を識別子と送信元エンドポイントで進行中の
// 問い合わせに振り分ける。
type Client struct {
	conn net.PacketConn

	mu      sync.Mutex
	pending map[pendingKey]chan []byte
	closed  bool
}

// NewClient は上流RADIUSクライアントを生成し、受信ループを開始する。
func NewClient() (*Client, error) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy socket: %w", err)
	}
	c := &Client{
		conn:    conn,
		pending: make(map[pendingKey]chan []byte),
	}
	go c.readLoop()
	return c, nil
}

// readLoop は応答データグラムを受信して該当の問い合わせへ配送する。
func (c *Client) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			slog.Warn("proxy socket read error",
				"event_id", "PROXY_READ_ERR",
				"error", err.Error(),
			)
			continue
		}
		if n < 20 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		key := pendingKey{identifier: data[1], addr: from.String()}

		c.mu.Lock()
		ch, ok := c.pending[key]
		if ok {
			delete(c.pending, key)
		}
		c.mu.Unlock()

		if !ok {
			// 期限切れ後に届いた遅延応答は捨てる
			slog.Debug("unsolicited upstream response dropped",
				"identifier", data[1],
				"from", from.String(),
			)
			continue
		}
		ch <- data
	}
}

// Exchange はリクエストを上流に送信し、応答を待つ。
// Response Authenticator検証に失敗した応答やパース不能な応答は破棄し、
// コンテキスト期限まで正規の応答を待ち続ける。期限切れ時はErrTimeoutを返す。
func (c *Client) Exchange(ctx context.Context, request *radius.Packet, upstreamAddr string, secret []byte) (*radius.Packet, error) {
	wire, err := request.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy request: %w", err)
	}

	dst, err := net.ResolveUDPAddr("udp", upstreamAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream address %q: %w", upstreamAddr, err)
	}

	key := pendingKey{identifier: request.Identifier, addr: dst.String()}
	ch := make(chan []byte, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if _, exists := c.pending[key]; exists {
		c.mu.Unlock()
		return nil, ErrDuplicateRequest
	}
	c.pending[key] = ch
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}

	if _, err := c.conn.WriteTo(wire, dst); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to send proxy request: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil, ErrTimeout
		case data := <-ch:
			if !internalradius.VerifyResponseAuthenticator(data, request.Authenticator, secret) {
				slog.Warn("upstream response authenticator mismatch, dropped",
					"event_id", "PROXY_AUTH_MISMATCH",
					"identifier", request.Identifier,
				)
				if !c.reregister(key, ch) {
					return nil, ErrClientClosed
				}
				continue
			}
			resp, err := radius.Parse(data, secret)
			if err != nil {
				slog.Warn("unparsable upstream response dropped",
					"event_id", "PROXY_PARSE_ERR",
					"identifier", request.Identifier,
					"error", err.Error(),
				)
				if !c.reregister(key, ch) {
					return nil, ErrClientClosed
				}
				continue
			}
			return resp, nil
		}
	}
}

// reregister は破棄した応答の後続を受けられるよう問い合わせを再登録する。
// readLoopは配送時にエントリを消すため、待ち続ける側が登録し直す。
func (c *Client) reregister(key pendingKey, ch chan []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.pending[key] = ch
	return true
}

// Close はソケットを閉じ、進行中の問い合わせを解放する。
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.pending = make(map[pendingKey]chan []byte)
	c.mu.Unlock()
	return c.conn.Close()
}
