package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Wellbeing Monitor API",
        "description": "Survey-driven stress detection and student wellbeing analytics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Modules", "description": "Taught modules"},
        {"name": "Surveys", "description": "Weekly wellbeing check-ins (detection trigger)"},
        {"name": "StressEvents", "description": "Detected and recorded stress events"},
        {"name": "Alerts", "description": "Staff alerts"},
        {"name": "Records", "description": "Grades, attendance and submissions"},
        {"name": "Analysis", "description": "Trends, distributions, risk, correlation, dashboard"},
        {"name": "Users", "description": "Account administration (admin only)"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys": {
            "get": {
                "tags": ["Surveys"],
                "summary": "List survey responses",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "integer"},
                    {"name": "module_id", "in": "query", "type": "integer"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Surveys"],
                "summary": "Submit weekly check-in",
                "description": "Stores the response and runs stress detection atomically with it.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitSurveyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "500": {"description": "Transaction rolled back"}
                }
            }
        },
        "/analysis/students/{id}/stress-trend": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Weekly stress trend",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/analysis/risk": {
            "get": {
                "tags": ["Analysis"],
                "summary": "High-risk students",
                "parameters": [
                    {"name": "attendance", "in": "query", "type": "number"},
                    {"name": "grade", "in": "query", "type": "number"},
                    {"name": "stress", "in": "query", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analysis/risk/export": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Export the high-risk report",
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        },
        "/analysis/dashboard": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Staff dashboard rollup",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitSurveyRequest": {
            "type": "object",
            "required": ["student_id", "week_number", "stress_level"],
            "properties": {
                "student_id": {"type": "integer"},
                "module_id": {"type": "integer"},
                "week_number": {"type": "integer", "minimum": 1},
                "stress_level": {"type": "integer", "minimum": 1, "maximum": 5},
                "hours_slept": {"type": "number"},
                "mood_comment": {"type": "string"}
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
