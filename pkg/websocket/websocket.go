package websocketPkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"DermaScan/internal/entity"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// remoteBox is the wire shape of a box produced by the inference service.
type remoteBox struct {
	XYXY []float64 `json:"xyxy"`
	Conf float64   `json:"conf"`
	Cls  int       `json:"cls"`
}

type remoteResult struct {
	Boxes []remoteBox `json:"boxes"`
}

type remoteResponse struct {
	Results []remoteResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// Client talks to an inference service that accepts an image as a binary
// websocket frame and answers with the boxes it found.
type Client struct {
	url          string
	log          *logrus.Logger
	conn         *websocket.Conn
	mu           sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewClient(url string, log *logrus.Logger) (*Client, error) {
	if url == "" {
		return nil, errors.New("remote detector URL not configured")
	}

	client := &Client{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 10 * time.Second,
	}

	go client.connectInBackground()

	return client, nil
}

func (c *Client) connectInBackground() {
	if err := c.reconnect(); err != nil {
		c.log.Warnf("Initial connection to remote detector failed: %v. Will retry on demand.", err)
		return
	}
	c.log.Infof("Connected to remote detector at %s", c.url)
}

func (c *Client) Name() string {
	return "remote"
}

func (c *Client) Ready() error {
	return nil
}

func (c *Client) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Debugf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *Client) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping to remote detector failed, dropping connection: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

// Detect sends the image at imagePath and waits for the reply. Round trips
// hold the client lock so replies cannot interleave.
func (c *Client) Detect(ctx context.Context, imagePath string) ([]entity.InferenceResult, error) {
	frame, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		if err := c.reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to remote detector: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conn = c.conn
	if conn == nil {
		return nil, errors.New("not connected to remote detector")
	}

	writeDeadline := time.Now().Add(c.writeTimeout)
	readDeadline := time.Now().Add(c.readTimeout)
	if deadline, ok := ctx.Deadline(); ok {
		if deadline.Before(writeDeadline) {
			writeDeadline = deadline
		}
		if deadline.Before(readDeadline) {
			readDeadline = deadline
		}
	}

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error sending image: %w", err)
	}

	conn.SetReadDeadline(readDeadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error reading detector reply: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	return decodeReply(message)
}

func decodeReply(message []byte) ([]entity.InferenceResult, error) {
	var reply remoteResponse
	if err := json.Unmarshal(message, &reply); err != nil {
		return nil, fmt.Errorf("error unmarshaling detector reply: %w", err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}

	results := make([]entity.InferenceResult, 0, len(reply.Results))
	for _, r := range reply.Results {
		boxes := make([]entity.BoundingBox, 0, len(r.Boxes))
		for _, b := range r.Boxes {
			if len(b.XYXY) != 4 {
				return nil, fmt.Errorf("malformed box: expected 4 coordinates, got %d", len(b.XYXY))
			}
			boxes = append(boxes, entity.BoundingBox{
				X1:         b.XYXY[0],
				Y1:         b.XYXY[1],
				X2:         b.XYXY[2],
				Y2:         b.XYXY[3],
				Confidence: b.Conf,
				Class:      b.Cls,
			})
		}
		results = append(results, entity.InferenceResult{Boxes: boxes})
	}

	return results, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
