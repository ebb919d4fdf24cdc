package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIS Registration API",
        "description": "Student registration scheduling: automatic and manual lecture/lab booking.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Scheduling", "description": "Automatic and manual schedule registration"},
        {"name": "Observability", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/schedules/auto": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Auto-schedule lecture and lab sessions for a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AutoScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Scheduled, possibly partially", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "Course already fully scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "WINDOW_CLOSED or FORBIDDEN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "SCHEDULING_IN_PROGRESS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "PREREQUISITE_UNMET", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NO_CANDIDATES", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "TOO_MANY_REQUESTS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/auto/bulk": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Auto-schedule several courses in one request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAutoScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-course results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "WINDOW_CLOSED or FORBIDDEN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/select": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Book or replace a single session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ManualSelectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "TIME_CONFLICT, ROOM_CONFLICT, SESSION_LIMIT_EXCEEDED or SLOT_FULL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/entries/{id}": {
            "delete": {
                "tags": ["Scheduling"],
                "summary": "Drop a schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Dropped"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/schedule": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List a student's schedule entries",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "academicYear", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/schedule/export": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Download a student's timetable",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "academicYear", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Timetable file", "schema": {"type": "file"}}
                }
            }
        },
        "/courses/{id}/slots": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List offered slots of a course with remaining seats",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "academicYear", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AutoScheduleRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "semester": {"type": "integer"},
                "academicYear": {"type": "string"}
            }
        },
        "BulkAutoScheduleRequest": {
            "type": "object",
            "required": ["studentId", "courseIds"],
            "properties": {
                "studentId": {"type": "string"},
                "courseIds": {"type": "array", "items": {"type": "string"}},
                "semester": {"type": "integer"},
                "academicYear": {"type": "string"}
            }
        },
        "ManualSelectRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "slotId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startPeriod": {"type": "integer"},
                "periodLength": {"type": "integer"},
                "room": {"type": "string"},
                "sessionKind": {"type": "string", "enum": ["lecture", "lab"]},
                "semester": {"type": "integer"},
                "academicYear": {"type": "string"}
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
