package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Minimal LSP wire types. Only the fields golens reads are declared; the
// server is free to send more.

// Position is a zero-based line/character location in a document.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [start, end) span in a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is a document URI plus a range within it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// MarkupContent is markup-formatted text, normally markdown.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the result of a textDocument/hover request.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// SymbolInformation is one entry of a flattened document symbol listing.
type SymbolInformation struct {
	Name          string   `json:"name"`
	Kind          int      `json:"kind"`
	ContainerName string   `json:"containerName,omitempty"`
	Location      Location `json:"location"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the common request payload of positional
// queries (hover, definition, references).
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// FileChangeType values for didChangeWatchedFiles.
const (
	FileChangeCreated = 1
	FileChangeChanged = 2
	FileChangeDeleted = 3
)

// FileEvent is one entry of a didChangeWatchedFiles notification.
type FileEvent struct {
	URI  string `json:"uri"`
	Type int    `json:"type"`
}

type jsonrpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("lsp: %s (code %d)", e.Message, e.Code)
}

// notificationHandler receives server-initiated notifications.
type notificationHandler func(method string, params json.RawMessage)

// Conn is a JSON-RPC 2.0 connection over LSP base-protocol framing
// (Content-Length headers). Writes are serialized through a mutex so
// concurrent requests against one session queue at the wire.
type Conn struct {
	writeMu sync.Mutex
	w       *bufio.Writer
	r       *bufio.Reader

	nextID  atomic.Int64
	pending map[int64]chan *jsonrpcMessage
	pendMu  sync.Mutex

	handler notificationHandler
	done    chan struct{}
	closeFn func() error
}

// NewConn wraps the server's stdout (r) and stdin (w). The handler is
// invoked from the read pump for every server notification and for server
// requests golens answers generically.
func NewConn(r io.Reader, w io.WriteCloser, handler notificationHandler) *Conn {
	return &Conn{
		w:       bufio.NewWriter(w),
		r:       bufio.NewReader(r),
		pending: make(map[int64]chan *jsonrpcMessage),
		handler: handler,
		done:    make(chan struct{}),
		closeFn: w.Close,
	}
}

// Done is closed when the read pump exits, gracefully or not.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Run pumps frames from the server until the stream closes. The exit is
// observable via Done; it never panics the owner.
func (c *Conn) Run() {
	defer close(c.done)
	for {
		msg, err := c.readMessage()
		if err != nil {
			if err != io.EOF {
				log.Printf("lsp: read pump exiting: %v", err)
			}
			c.failPending(err)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Conn) dispatch(msg *jsonrpcMessage) {
	switch {
	case msg.ID != nil && msg.Method == "":
		// Response to one of our requests.
		c.pendMu.Lock()
		ch, ok := c.pending[*msg.ID]
		if ok {
			delete(c.pending, *msg.ID)
		}
		c.pendMu.Unlock()
		if ok {
			ch <- msg
		}
	case msg.ID != nil:
		// Server-to-client request. Answer generically so the server
		// does not stall waiting on capabilities we do not implement.
		c.replyToServerRequest(msg)
	default:
		if c.handler != nil {
			c.handler(msg.Method, msg.Params)
		}
	}
}

// replyToServerRequest acknowledges server requests with the minimal legal
// response for each method.
func (c *Conn) replyToServerRequest(msg *jsonrpcMessage) {
	var result any
	switch msg.Method {
	case "workspace/configuration":
		// One null per requested item.
		var params struct {
			Items []json.RawMessage `json:"items"`
		}
		_ = json.Unmarshal(msg.Params, &params)
		result = make([]any, len(params.Items))
	case "window/workDoneProgress/create",
		"client/registerCapability",
		"client/unregisterCapability",
		"window/showMessageRequest",
		"workspace/applyEdit":
		result = nil
	default:
		result = nil
	}
	if err := c.write(&jsonrpcMessage{JSONRPC: "2.0", ID: msg.ID, Result: mustMarshal(result)}); err != nil {
		log.Printf("lsp: failed to answer server request %s: %v", msg.Method, err)
	}
}

// Call issues a request and decodes the response into result. A nil result
// pointer discards the payload. Honors ctx for cancellation and timeout.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	ch := make(chan *jsonrpcMessage, 1)
	c.pendMu.Lock()
	c.pending[id] = ch
	c.pendMu.Unlock()

	msg := &jsonrpcMessage{JSONRPC: "2.0", ID: &id, Method: method}
	if params != nil {
		msg.Params = mustMarshal(params)
	}
	if err := c.write(msg); err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return fmt.Errorf("%s request: %w", method, ctx.Err())
	case resp := <-ch:
		if resp == nil {
			return fmt.Errorf("%s request: connection closed", method)
		}
		if resp.Error != nil {
			return fmt.Errorf("%s request failed: %w", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%s response decode failed: %w", method, err)
			}
		}
		return nil
	}
}

// Notify sends a notification (no response expected).
func (c *Conn) Notify(method string, params any) error {
	msg := &jsonrpcMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		msg.Params = mustMarshal(params)
	}
	return c.write(msg)
}

// Close closes the write side, which makes the server see EOF on its stdin.
func (c *Conn) Close() error {
	return c.closeFn()
}

func (c *Conn) write(msg *jsonrpcMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := fmt.Fprintf(c.w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := c.w.Write(data); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) readMessage() (*jsonrpcMessage, error) {
	length := -1
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			length, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("malformed Content-Length: %w", err)
			}
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, err
	}
	var msg jsonrpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("malformed message body: %w", err)
	}
	return &msg, nil
}

// failPending unblocks callers waiting on responses that will never arrive.
func (c *Conn) failPending(err error) {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable params, a programming error.
		panic(err)
	}
	return data
}
