package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MentorMe Matching API",
        "description": "Tutor matching, trust scoring and profile embedding service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Matching", "description": "Ranked tutor matching"},
        {"name": "Tutors", "description": "Tutor browsing and maintenance"},
        {"name": "Events", "description": "Domain event ingestion"}
    ],
    "paths": {
        "/matching/match": {
            "post": {
                "tags": ["Matching"],
                "summary": "Rank tutors against a matching request",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MatchingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Embedding service unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors": {
            "get": {
                "tags": ["Tutors"],
                "summary": "List verified tutors offering a subject",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "city", "in": "query", "type": "string"},
                    {"name": "district", "in": "query", "type": "string"},
                    {"name": "priceMin", "in": "query", "type": "number"},
                    {"name": "priceMax", "in": "query", "type": "number"},
                    {"name": "trustScoreMin", "in": "query", "type": "number"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}/trust-score/recompute": {
            "post": {
                "tags": ["Tutors"],
                "summary": "Recompute and persist a tutor's trust score",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Tutor not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}/embedding/refresh": {
            "post": {
                "tags": ["Tutors"],
                "summary": "Regenerate a tutor's profile embedding",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Tutor not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Embedding service unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/booking-completed": {
            "post": {
                "tags": ["Events"],
                "summary": "Ingest a booking-completed event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TutorEvent"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/review-created": {
            "post": {
                "tags": ["Events"],
                "summary": "Ingest a review-created event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TutorEvent"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_minute": {"type": "integer", "minimum": 0, "maximum": 1440},
                "end_minute": {"type": "integer", "minimum": 0, "maximum": 1440}
            }
        },
        "MatchingRequest": {
            "type": "object",
            "required": ["subject_id", "budget_per_hour"],
            "properties": {
                "subject_id": {"type": "string"},
                "grade_level": {"type": "string"},
                "city": {"type": "string"},
                "district": {"type": "string"},
                "budget_per_hour": {"type": "number"},
                "desired_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "description": {"type": "string"}
            }
        },
        "TutorEvent": {
            "type": "object",
            "required": ["tutor_id"],
            "properties": {
                "tutor_id": {"type": "string"}
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
