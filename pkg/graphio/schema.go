package graphio

// graphSchema accepts every shape the graph UI and import files produce.
// Alternate field names are resolved later by Normalize.
const graphSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": {"$ref": "#/definitions/node"}
    },
    "edges": {
      "type": "array",
      "items": {"$ref": "#/definitions/edge"}
    }
  },
  "definitions": {
    "id": {"type": ["integer", "string"]},
    "optionalId": {"type": ["integer", "string", "null"]},
    "text": {"type": ["string", "null"]},
    "flag": {"type": ["boolean", "null"]},
    "node": {
      "type": "object",
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "label": {"$ref": "#/definitions/text"},
        "name": {"$ref": "#/definitions/text"},
        "role": {"$ref": "#/definitions/text"},
        "description": {"$ref": "#/definitions/text"},
        "is_start": {"$ref": "#/definitions/flag"},
        "is_end": {"$ref": "#/definitions/flag"},
        "to_delete": {"$ref": "#/definitions/flag"},
        "position": {
          "type": "object",
          "properties": {
            "x": {"type": "number"},
            "y": {"type": "number"}
          }
        },
        "position_x": {"type": "number"},
        "position_y": {"type": "number"},
        "data": {
          "type": "object",
          "properties": {
            "label": {"$ref": "#/definitions/text"},
            "role": {"$ref": "#/definitions/text"},
            "description": {"$ref": "#/definitions/text"},
            "is_start": {"$ref": "#/definitions/flag"},
            "is_end": {"$ref": "#/definitions/flag"}
          }
        }
      }
    },
    "edge": {
      "type": "object",
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "source": {"$ref": "#/definitions/optionalId"},
        "from": {"$ref": "#/definitions/optionalId"},
        "target": {"$ref": "#/definitions/optionalId"},
        "to": {"$ref": "#/definitions/optionalId"},
        "label": {"$ref": "#/definitions/text"},
        "name": {"$ref": "#/definitions/text"},
        "to_delete": {"$ref": "#/definitions/flag"},
        "data": {
          "type": "object",
          "properties": {
            "label": {"$ref": "#/definitions/text"}
          }
        }
      }
    }
  }
}`
