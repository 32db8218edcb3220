package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "File Tracker API",
        "description": "File custody tracking backend",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Session boundary against the shared directory"},
        {"name": "Movements", "description": "File movement requests and custody workflow"},
        {"name": "Catalog", "description": "Department files and folders"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate against the shared directory",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the presented token",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/movements": {
            "post": {
                "tags": ["Movements"],
                "summary": "Create a movement request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMovementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty selection, unknown files, cross-department selection or missing department"},
                    "409": {"description": "A file already has a pending request"}
                }
            },
            "get": {
                "tags": ["Movements"],
                "summary": "List movements scoped by role",
                "parameters": [
                    {"name": "status", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/movements/mine": {
            "get": {
                "tags": ["Movements"],
                "summary": "Movements requested by the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/movements/pending": {
            "get": {
                "tags": ["Movements"],
                "summary": "Pending approval queue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller is not an approver"}
                }
            }
        },
        "/api/v1/movements/notifications": {
            "get": {
                "tags": ["Movements"],
                "summary": "Recently decided movements for the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/movements/check-duplicate": {
            "get": {
                "tags": ["Movements"],
                "summary": "Check whether a file already has a pending request by the caller",
                "parameters": [
                    {"name": "file_id", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/movements/{id}": {
            "get": {
                "tags": ["Movements"],
                "summary": "Movement detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Movements"],
                "summary": "Patch a movement (administrative)",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMovementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Movements"],
                "summary": "Delete a movement (super admin)",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/movements/{id}/approve": {
            "put": {
                "tags": ["Movements"],
                "summary": "Approve a pending movement",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Movement is not pending"}
                }
            }
        },
        "/api/v1/movements/{id}/reject": {
            "put": {
                "tags": ["Movements"],
                "summary": "Reject a pending movement with a reason",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectMovementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Movement is not pending"}
                }
            }
        },
        "/api/v1/movements/{id}/take-out": {
            "put": {
                "tags": ["Movements"],
                "summary": "Record physical hand-out of an approved movement",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Movement is not approved"}
                }
            }
        },
        "/api/v1/movements/{id}/return": {
            "put": {
                "tags": ["Movements"],
                "summary": "Record return of a taken-out movement",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Movement is not taken out"}
                }
            }
        },
        "/api/v1/files/my-department": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Files belonging to the caller's department",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/folders/my-department": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Folders belonging to the caller's department",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateMovementRequest": {
            "type": "object",
            "properties": {
                "move_type": {"type": "string"},
                "remark": {"type": "string"},
                "folder_id": {"type": "integer"},
                "files": {
                    "type": "array",
                    "items": {"type": "integer"}
                }
            },
            "required": ["files"]
        },
        "RejectMovementRequest": {
            "type": "object",
            "properties": {
                "remark": {"type": "string"}
            },
            "required": ["remark"]
        },
        "UpdateMovementRequest": {
            "type": "object",
            "properties": {
                "move_type": {"type": "string"},
                "remark": {"type": "string"},
                "folder_id": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
