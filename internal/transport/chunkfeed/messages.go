package chunkfeed

import "encoding/json"

const Version = "1.0"

// Wire message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeChunkReq  = "CHUNK_REQ"
	TypeChunk     = "CHUNK"
	TypeChunkDone = "CHUNK_DONE"
)

// BaseMessage lets us route inbound JSON frames by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// HELLO (viewer -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewerName      string `json:"viewer_name"`
	ChunkSize       int    `json:"chunk_size"`
}

// WELCOME (server -> viewer)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seed            int64  `json:"seed"`
	ChunkSize       int    `json:"chunk_size"`
}

// CHUNK_REQ (viewer -> server)
type ChunkReqMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           uint64   `json:"req_id"`
	Coords          [][3]int `json:"coords"`
}

// CHUNK (server -> viewer): one chunk payload. Data is base64 of
// zstd-compressed little-endian uint16 block ids.
type ChunkMsg struct {
	Type     string `json:"type"`
	ReqID    uint64 `json:"req_id"`
	Coord    [3]int `json:"coord"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

// CHUNK_DONE (server -> viewer): terminates one CHUNK_REQ. Served may be
// lower than requested; missing chunks fall back to local generation.
type ChunkDoneMsg struct {
	Type   string `json:"type"`
	ReqID  uint64 `json:"req_id"`
	Served int    `json:"served"`
}

// EncodingRawZstd is the only chunk payload encoding this viewer accepts.
const EncodingRawZstd = "RAW_ZSTD"
