// Package swaggerkit serves the admin API's OpenAPI document and Swagger UI
package swaggerkit

import (
	"opengov/internal/core/version"

	"github.com/swaggo/swag/v2"
)

// InstanceName is the swag registry key for the admin document
const InstanceName = "admin"

// the document is maintained by hand next to the handlers in
// internal/services/divisions/http; keep the two in step
const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/v1/meta/health": {
            "get": {
                "tags": ["meta"],
                "summary": "Liveness and build info",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/HealthEnvelope"}}}}
                }
            }
        },
        "/v1/meta/ready": {
            "get": {
                "tags": ["meta"],
                "summary": "Postgres and Redis reachability",
                "responses": {
                    "200": {"description": "Ready", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ReadyEnvelope"}}}},
                    "503": {"description": "A dependency check failed", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
                }
            }
        },
        "/v1/passes/last": {
            "get": {
                "tags": ["passes"],
                "summary": "Report of the most recent finished pass",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/PassEnvelope"}}}},
                    "404": {"description": "No pass has finished yet", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
                }
            }
        },
        "/v1/passes": {
            "post": {
                "tags": ["passes"],
                "summary": "Run a reconciliation pass now and wait for its report",
                "requestBody": {
                    "required": false,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TriggerRequest"}}}
                },
                "responses": {
                    "200": {"description": "The pass ran; failures are listed in the report", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/PassEnvelope"}}}},
                    "409": {"description": "A pass is already running", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}},
                    "503": {"description": "The pass could not start", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
                }
            }
        },
        "/v1/divisions/{divisionID}": {
            "get": {
                "tags": ["divisions"],
                "summary": "Thread mapping and last seen marker for one division",
                "parameters": [
                    {"name": "divisionID", "in": "path", "required": true, "schema": {"type": "integer", "minimum": 1}}
                ],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/DivisionEnvelope"}}}},
                    "404": {"description": "Division is not tracked", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
                }
            }
        }
    },
    "components": {
        "schemas": {
            "BuildInfo": {
                "type": "object",
                "properties": {
                    "service": {"type": "string"},
                    "version": {"type": "string"},
                    "commit": {"type": "string"},
                    "date": {"type": "string"}
                }
            },
            "Health": {
                "type": "object",
                "properties": {
                    "ok": {"type": "boolean"},
                    "service": {"type": "string"},
                    "build": {"$ref": "#/components/schemas/BuildInfo"},
                    "started": {"type": "string", "format": "date-time"},
                    "now": {"type": "string", "format": "date-time"}
                }
            },
            "ReadyCheck": {
                "type": "object",
                "properties": {
                    "name": {"type": "string", "enum": ["pg", "redis"]},
                    "status": {"type": "string", "enum": ["ok", "fail", "skipped"]},
                    "error": {"type": "string"}
                }
            },
            "Ready": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "enum": ["ok", "fail"]},
                    "checks": {"type": "array", "items": {"$ref": "#/components/schemas/ReadyCheck"}},
                    "now": {"type": "string", "format": "date-time"}
                }
            },
            "TriggerRequest": {
                "type": "object",
                "properties": {
                    "reason": {"type": "string", "maxLength": 200, "example": "backfill"}
                }
            },
            "DivisionFailure": {
                "type": "object",
                "properties": {
                    "division_id": {"type": "integer"},
                    "kind": {"type": "string", "example": "PlatformUnavailable"},
                    "error": {"type": "string"}
                }
            },
            "PassReport": {
                "type": "object",
                "properties": {
                    "pass_id": {"type": "string"},
                    "trigger": {"type": "string", "example": "manual:backfill"},
                    "started_at": {"type": "string", "format": "date-time"},
                    "finished_at": {"type": "string", "format": "date-time"},
                    "listed": {"type": "integer"},
                    "created": {"type": "integer"},
                    "updated": {"type": "integer"},
                    "unchanged": {"type": "integer"},
                    "duplicates": {"type": "integer"},
                    "failed": {"type": "integer"},
                    "failures": {"type": "array", "items": {"$ref": "#/components/schemas/DivisionFailure"}},
                    "aborted": {"type": "boolean"},
                    "error": {"type": "string"}
                }
            },
            "DivisionView": {
                "type": "object",
                "properties": {
                    "division_id": {"type": "integer"},
                    "thread_id": {"type": "string"},
                    "publication_updated": {"type": "string"},
                    "seen": {"type": "boolean"},
                    "fetched_at": {"type": "string", "format": "date-time"}
                }
            },
            "HealthEnvelope": {"allOf": [{"$ref": "#/components/schemas/Envelope"}, {"type": "object", "properties": {"data": {"$ref": "#/components/schemas/Health"}}}]},
            "ReadyEnvelope": {"allOf": [{"$ref": "#/components/schemas/Envelope"}, {"type": "object", "properties": {"data": {"$ref": "#/components/schemas/Ready"}}}]},
            "PassEnvelope": {"allOf": [{"$ref": "#/components/schemas/Envelope"}, {"type": "object", "properties": {"data": {"$ref": "#/components/schemas/PassReport"}}}]},
            "DivisionEnvelope": {"allOf": [{"$ref": "#/components/schemas/Envelope"}, {"type": "object", "properties": {"data": {"$ref": "#/components/schemas/DivisionView"}}}]},
            "Envelope": {
                "type": "object",
                "properties": {
                    "status_code": {"type": "integer", "format": "int32"},
                    "status": {"type": "string"},
                    "request_id": {"type": "string"}
                },
                "required": ["status_code", "status"]
            }
        }
    }
}`

// SwaggerInfo holds the exported metadata for the admin document
var SwaggerInfo = &swag.Spec{
	Version:          version.Info().Version,
	Title:            "opengov admin",
	Description:      "Operator endpoints for the Commons divisions poller",
	InfoInstanceName: InstanceName,
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
