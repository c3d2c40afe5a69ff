// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/rfidtags/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service banner",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Database health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "Database connection failed", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/tags": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "List tags",
                "parameters": [
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Maximum rows (default 100, or 10 with page)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Rows to skip (default 0)", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "1-based page number; switches to the page based response", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TagListResponse"}},
                    "400": {"description": "error: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Create one or more tags",
                "parameters": [
                    {"description": "Tag payload", "name": "tag", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/controllers.TagResponse"}},
                    "207": {"description": "Partially created", "schema": {"$ref": "#/definitions/controllers.BatchResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "Duplicate EPC", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/tags/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Create tags in a batch",
                "parameters": [
                    {"description": "Tags and optional session id", "name": "batch", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.BatchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/controllers.BatchResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/tags/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Get a tag by EPC",
                "parameters": [{"type": "string", "description": "Tag EPC", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TagResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Update a tag",
                "parameters": [
                    {"type": "string", "description": "Tag EPC", "name": "key", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "update", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TagResponse"}},
                    "400": {"description": "Invalid update", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Delete a tag by EPC",
                "parameters": [{"type": "string", "description": "Tag EPC", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TagResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/tags/id/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["tags"],
                "summary": "Delete a tag by database id",
                "parameters": [{"type": "integer", "description": "Tag id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TagResponse"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Tag": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "epc": {"type": "string"},
                "status": {"type": "string", "enum": ["Available", "Reserved", "Assigned", "Consumed", "Lost", "Damaged"]},
                "parent_tag_id": {"type": "integer"},
                "current_location_id": {"type": "integer"},
                "rssi": {"type": "string"},
                "count": {"type": "integer"},
                "device_id": {"type": "string"},
                "session_id": {"type": "string"},
                "location": {"type": "string"},
                "reader_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "controllers.BatchRequest": {
            "type": "object",
            "required": ["tags"],
            "properties": {
                "tags": {"type": "array", "items": {"type": "object"}},
                "sessionId": {"type": "string"}
            }
        },
        "controllers.TagResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.Tag"},
                "code": {"type": "integer"}
            }
        },
        "controllers.BatchResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "code": {"type": "integer"}
            }
        },
        "controllers.TagListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Tag"}},
                "count": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "RFID Tag Management API",
	Description:      "CRUD and batch ingestion for RFID tags read by UHF readers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
