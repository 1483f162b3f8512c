package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LumaLearn Analytics API",
        "description": "Learning analytics and reporting service for the LumaLearn platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Analytics", "description": "Session ingestion and system metrics"},
        {"name": "Reports", "description": "Learning, progress and insights reports"},
        {"name": "Exports", "description": "Asynchronous report exports"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/analytics/sessions": {
            "post": {
                "tags": ["Analytics"],
                "summary": "Fold a learning session into the daily aggregate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProcessSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated daily aggregate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "403": {"description": "Child not accessible"}
                }
            }
        },
        "/analytics/quizzes": {
            "post": {
                "tags": ["Analytics"],
                "summary": "Record a quiz attempt outcome",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordQuizRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Aggregated system metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/reports/learning/{childId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate a learning report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "path", "required": true, "type": "string"},
                    {"name": "timeframe", "in": "query", "type": "string", "enum": ["week", "month", "quarter"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Child not accessible"}
                }
            }
        },
        "/reports/progress/{childId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate a progress report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "path", "required": true, "type": "string"},
                    {"name": "timeframe", "in": "query", "type": "string", "enum": ["week", "month", "quarter"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Child not accessible"}
                }
            }
        },
        "/reports/insights/{childId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate an insights report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Child not accessible"}
                }
            }
        },
        "/reports/bundle/{childId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate all three reports, collecting per-section failures",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "path", "required": true, "type": "string"},
                    {"name": "timeframe", "in": "query", "type": "string", "enum": ["week", "month", "quarter"]}
                ],
                "responses": {
                    "200": {"description": "Bundle with per-section errors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "All sections failed"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a report export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "Export file"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "ProcessSessionRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "subject": {"type": "string"},
                "topic": {"type": "string"},
                "session_type": {"type": "string", "enum": ["lesson", "practice", "game", "story"]},
                "duration_minutes": {"type": "integer"},
                "completion_percentage": {"type": "number"},
                "points_earned": {"type": "integer"}
            },
            "required": ["child_id", "subject", "topic", "session_type"]
        },
        "RecordQuizRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "subject": {"type": "string"},
                "total_questions": {"type": "integer"},
                "correct_answers": {"type": "integer"}
            },
            "required": ["child_id", "subject", "total_questions"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["learning", "progress", "insights"]},
                "child_id": {"type": "string"},
                "timeframe": {"type": "string", "enum": ["week", "month", "quarter"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["kind", "child_id", "format"]
        },
        "ExportStatusResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "result_url": {"type": "string"},
                "error": {"type": "string"}
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
