package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TPQ Santri API",
        "description": "Attendance and Quran reading progress tracker for a TPQ",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Santri roster management"},
        {"name": "Attendance", "description": "Daily attendance and reading snapshots"},
        {"name": "Reports", "description": "Rolling 30-day progress reports"},
        {"name": "Backup", "description": "Bulk JSON export and import"}
    ],
    "paths": {
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{code}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Replace a student record",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student and their attendance",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List all attendance for one day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for one student and day",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/fill-absent": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark every unrecorded student absent for a held session day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{code}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List one student's attendance between two days inclusive",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{code}/attendance/last": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get the most recent attendance row",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No attendance recorded"}
                }
            }
        },
        "/students/{code}/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Aggregate presence and evaluation counts over a range",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{code}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Rolling 30-day progress report",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/students/{code}/report/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Render the progress report to PDF",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/backup/export": {
            "get": {
                "tags": ["Backup"],
                "summary": "Export every student and attendance row as one JSON document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Backup"}}
                }
            }
        },
        "/backup/import": {
            "post": {
                "tags": ["Backup"],
                "summary": "Replay a backup document",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Backup"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SaveStudentRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "student_code": {"type": "string"},
                "name": {"type": "string"},
                "gender": {"type": "string", "enum": ["L", "P"]},
                "birth_date": {"type": "string", "format": "date-time"},
                "position_type": {"type": "string", "enum": ["iqro", "quran"]},
                "iqro_number": {"type": "integer"},
                "iqro_page": {"type": "integer"},
                "quran_surah": {"type": "integer"},
                "quran_ayat": {"type": "integer"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["student_code", "date"],
            "properties": {
                "student_code": {"type": "string"},
                "date": {"type": "string"},
                "is_present": {"type": "boolean"},
                "iqro_number": {"type": "integer"},
                "iqro_page": {"type": "integer"},
                "quran_surah": {"type": "integer"},
                "quran_ayat": {"type": "integer"},
                "is_passed": {"type": "boolean"},
                "teacher_note": {"type": "string"}
            }
        },
        "Backup": {
            "type": "object",
            "properties": {
                "students": {"type": "array", "items": {"type": "object"}},
                "attendances": {"type": "array", "items": {"type": "object"}},
                "export_timestamp": {"type": "string", "format": "date-time"}
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
