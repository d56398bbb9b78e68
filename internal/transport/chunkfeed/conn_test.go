package chunkfeed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

type testFeed struct {
	serve     map[[3]int][]uint16
	chunkSize int
	encoding  string
}

func (f *testFeed) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	return func(rw http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var hello HelloMsg
		if err := ws.ReadJSON(&hello); err != nil || hello.Type != TypeHello {
			return
		}
		chunkSize := f.chunkSize
		if chunkSize == 0 {
			chunkSize = hello.ChunkSize
		}
		_ = ws.WriteJSON(WelcomeMsg{
			Type:            TypeWelcome,
			ProtocolVersion: Version,
			Seed:            2024,
			ChunkSize:       chunkSize,
		})

		for {
			var req ChunkReqMsg
			if err := ws.ReadJSON(&req); err != nil {
				return
			}
			served := 0
			for _, c := range req.Coords {
				blocks, ok := f.serve[c]
				if !ok {
					continue
				}
				raw := make([]byte, 2*len(blocks))
				for i, b := range blocks {
					raw[2*i] = byte(b)
					raw[2*i+1] = byte(b >> 8)
				}
				encoding := f.encoding
				if encoding == "" {
					encoding = EncodingRawZstd
				}
				_ = ws.WriteJSON(ChunkMsg{
					Type:     TypeChunk,
					ReqID:    req.ReqID,
					Coord:    c,
					Encoding: encoding,
					Data:     base64.StdEncoding.EncodeToString(enc.EncodeAll(raw, nil)),
				})
				served++
			}
			_ = ws.WriteJSON(ChunkDoneMsg{Type: TypeChunkDone, ReqID: req.ReqID, Served: served})
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func feedLogger() *log.Logger { return log.New(os.Stdout, "[feed-test] ", 0) }

func TestDialAndFetch(t *testing.T) {
	blocks := make([]uint16, 64)
	for i := range blocks {
		blocks[i] = uint16(i)
	}
	feed := &testFeed{serve: map[[3]int][]uint16{
		{0, 0, 0}:  blocks,
		{1, -2, 3}: blocks,
	}}
	srv := httptest.NewServer(feed.handler(t))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv), "probe", 16, feedLogger())
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, int64(2024), c.Seed())

	got, err := c.Fetch(context.Background(), [][3]int{{0, 0, 0}, {1, -2, 3}, {9, 9, 9}})
	require.NoError(t, err)
	require.Len(t, got, 2, "unserved coords are absent, not errors")
	require.Equal(t, blocks, got[[3]int{1, -2, 3}])

	// Sequential requests keep working on the same socket.
	got, err = c.Fetch(context.Background(), [][3]int{{0, 0, 0}})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestDialRejectsChunkSizeMismatch(t *testing.T) {
	feed := &testFeed{chunkSize: 32}
	srv := httptest.NewServer(feed.handler(t))
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), "probe", 16, feedLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk size")
}

func TestFetchRejectsUnknownEncoding(t *testing.T) {
	feed := &testFeed{
		serve:    map[[3]int][]uint16{{0, 0, 0}: {1, 2, 3}},
		encoding: "RLE",
	}
	srv := httptest.NewServer(feed.handler(t))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv), "probe", 16, feedLogger())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(context.Background(), [][3]int{{0, 0, 0}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported encoding")
}

func TestDialRejectsMalformedWelcome(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(func() http.HandlerFunc {
		return func(rw http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(rw, r, nil)
			if err != nil {
				return
			}
			defer ws.Close()
			var hello any
			_ = ws.ReadJSON(&hello)
			// Missing required seed field.
			_ = ws.WriteMessage(websocket.TextMessage, mustJSON(map[string]any{
				"type":             TypeWelcome,
				"protocol_version": Version,
				"chunk_size":       16,
			}))
		}
	}())
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), "probe", 16, feedLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "WELCOME")
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
