// Package chunkfeed is the worker's network connection to a terrain
// server: a websocket carrying JSON frames with zstd-compressed chunk
// payloads, validated against embedded schemas.
package chunkfeed

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const readTimeout = 30 * time.Second

type Conn struct {
	ws     *websocket.Conn
	logger *log.Logger
	dec    *zstd.Decoder

	welcome WelcomeMsg
	nextReq uint64

	welcomeS *jsonschema.Schema
	chunkS   *jsonschema.Schema
	doneS    *jsonschema.Schema
}

// Dial connects, performs the HELLO/WELCOME handshake and returns the
// ready connection. chunkSize is advertised so the server can reject a
// mismatched viewer instead of serving garbage.
func Dial(ctx context.Context, url, viewerName string, chunkSize int, logger *log.Logger) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Conn{ws: ws, logger: logger}
	c.welcomeS = jsonschema.MustCompileString("welcome.schema.json", welcomeSchema)
	c.chunkS = jsonschema.MustCompileString("chunk.schema.json", chunkSchema)
	c.doneS = jsonschema.MustCompileString("chunk_done.schema.json", chunkDoneSchema)
	c.dec, err = zstd.NewReader(nil)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	hello := HelloMsg{
		Type:            TypeHello,
		ProtocolVersion: Version,
		ViewerName:      viewerName,
		ChunkSize:       chunkSize,
	}
	if err := ws.WriteJSON(hello); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	raw, err := c.read()
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	if err := validate(c.welcomeS, raw); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("WELCOME: %w", err)
	}
	if err := json.Unmarshal(raw, &c.welcome); err != nil {
		_ = ws.Close()
		return nil, err
	}
	if c.welcome.ChunkSize != chunkSize {
		_ = ws.Close()
		return nil, fmt.Errorf("server chunk size %d, viewer built for %d", c.welcome.ChunkSize, chunkSize)
	}
	return c, nil
}

// Seed is the server's world seed, used to namespace the local cache.
func (c *Conn) Seed() int64 { return c.welcome.Seed }

// Fetch requests coords and blocks until the server finishes the request.
// Chunks the server does not serve are simply absent from the result.
func (c *Conn) Fetch(ctx context.Context, coords [][3]int) (map[[3]int][]uint16, error) {
	c.nextReq++
	req := ChunkReqMsg{
		Type:            TypeChunkReq,
		ProtocolVersion: Version,
		ReqID:           c.nextReq,
		Coords:          coords,
	}
	if err := c.ws.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send CHUNK_REQ: %w", err)
	}

	out := make(map[[3]int][]uint16, len(coords))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := c.read()
		if err != nil {
			return nil, err
		}
		base, err := DecodeBase(raw)
		if err != nil {
			c.logger.Printf("chunkfeed: bad frame: %v", err)
			continue
		}
		switch base.Type {
		case TypeChunk:
			if err := validate(c.chunkS, raw); err != nil {
				return nil, fmt.Errorf("CHUNK: %w", err)
			}
			var m ChunkMsg
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, err
			}
			if m.ReqID != req.ReqID {
				continue
			}
			blocks, err := c.decodePayload(m)
			if err != nil {
				return nil, err
			}
			out[m.Coord] = blocks
		case TypeChunkDone:
			if err := validate(c.doneS, raw); err != nil {
				return nil, fmt.Errorf("CHUNK_DONE: %w", err)
			}
			var m ChunkDoneMsg
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, err
			}
			if m.ReqID == req.ReqID {
				return out, nil
			}
		default:
			c.logger.Printf("chunkfeed: ignoring %q frame", base.Type)
		}
	}
}

func (c *Conn) decodePayload(m ChunkMsg) ([]uint16, error) {
	if m.Encoding != EncodingRawZstd {
		return nil, fmt.Errorf("chunk %v: unsupported encoding %q", m.Coord, m.Encoding)
	}
	comp, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", m.Coord, err)
	}
	raw, err := c.dec.DecodeAll(comp, nil)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", m.Coord, err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("chunk %v: odd payload length %d", m.Coord, len(raw))
	}
	blocks := make([]uint16, len(raw)/2)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return blocks, nil
}

func (c *Conn) read() ([]byte, error) {
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	_, raw, err := c.ws.ReadMessage()
	return raw, err
}

func (c *Conn) Close() error {
	c.dec.Close()
	return c.ws.Close()
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
