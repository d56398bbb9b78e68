package chunkfeed

const welcomeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "seed", "chunk_size"],
  "properties": {
    "type": {"const": "WELCOME"},
    "protocol_version": {"type": "string"},
    "seed": {"type": "integer"},
    "chunk_size": {"type": "integer", "minimum": 1}
  }
}`

const chunkSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "req_id", "coord", "encoding", "data"],
  "properties": {
    "type": {"const": "CHUNK"},
    "req_id": {"type": "integer", "minimum": 0},
    "coord": {
      "type": "array",
      "items": {"type": "integer"},
      "minItems": 3,
      "maxItems": 3
    },
    "encoding": {"type": "string"},
    "data": {"type": "string"}
  }
}`

const chunkDoneSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "req_id"],
  "properties": {
    "type": {"const": "CHUNK_DONE"},
    "req_id": {"type": "integer", "minimum": 0},
    "served": {"type": "integer", "minimum": 0}
  }
}`
