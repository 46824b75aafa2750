package sessionblob

// SessionSchema is the JSON schema for the session blob exchanged with the
// UI layer. The format is a fixed external contract: an agent config, the
// conversation transcript, and the model chosen from the catalog.
const SessionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["config", "transcript", "modelId"],
  "properties": {
    "config": {
      "type": "object",
      "required": ["name", "model"],
      "properties": {
        "name": {
          "type": "string",
          "minLength": 1
        },
        "model": {
          "type": "string",
          "minLength": 1
        },
        "system_prompt": {
          "type": "string"
        },
        "temperature": {
          "type": "number",
          "minimum": 0,
          "maximum": 2
        },
        "top_p": {
          "type": "number",
          "minimum": 0,
          "maximum": 1
        },
        "tools": {
          "type": "array",
          "items": {
            "type": "string",
            "enum": ["basic-arithmetic", "current-time", "web-fetch"]
          }
        },
        "extras": {
          "type": "object"
        }
      }
    },
    "transcript": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role": {
            "type": "string",
            "enum": ["user", "assistant", "system"]
          },
          "content": {
            "type": "string"
          }
        }
      }
    },
    "modelId": {
      "type": "string",
      "minLength": 1
    }
  }
}`
