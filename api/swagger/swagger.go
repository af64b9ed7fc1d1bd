package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Slotbook API",
        "description": "Weekly availability, slot generation and public booking.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Availability", "description": "Weekly hours, timezone and date overrides"},
        {"name": "EventTypes", "description": "Bookable meeting templates"},
        {"name": "Meetings", "description": "Host view of bookings"},
        {"name": "Public", "description": "Invitee booking flow"}
    ],
    "paths": {
        "/availability/schedule": {
            "get": {
                "tags": ["Availability"],
                "summary": "Get schedule",
                "description": "Returns the default schedule, creating it on first access.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Replace weekly hours",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid interval or timezone", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/schedule/timezone": {
            "patch": {
                "tags": ["Availability"],
                "summary": "Change schedule timezone",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimezoneRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/schedule.ics": {
            "get": {
                "tags": ["Availability"],
                "summary": "Availability calendar feed",
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document"}
                }
            }
        },
        "/availability/schedules": {
            "get": {
                "tags": ["Availability"],
                "summary": "List schedules",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Create schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/date-overrides": {
            "get": {
                "tags": ["Availability"],
                "summary": "List date overrides",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Upsert date override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DateOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/date-overrides/{id}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete date override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/event-types": {
            "get": {
                "tags": ["EventTypes"],
                "summary": "List event types",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "active_only", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["EventTypes"],
                "summary": "Create event type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventTypeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/event-types/{id}": {
            "get": {
                "tags": ["EventTypes"],
                "summary": "Get event type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["EventTypes"],
                "summary": "Update event type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventTypeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["EventTypes"],
                "summary": "Delete event type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Event type has bookings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/event-types/{id}/toggle": {
            "patch": {
                "tags": ["EventTypes"],
                "summary": "Toggle active flag",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/event-types/{id}/duplicate": {
            "post": {
                "tags": ["EventTypes"],
                "summary": "Duplicate event type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings": {
            "get": {
                "tags": ["Meetings"],
                "summary": "List meetings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["upcoming", "past", "all"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings/export.csv": {
            "get": {
                "tags": ["Meetings"],
                "summary": "Export meetings as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["upcoming", "past", "all"]}
                ],
                "responses": {
                    "200": {"description": "CSV document"}
                }
            }
        },
        "/meetings/export.pdf": {
            "get": {
                "tags": ["Meetings"],
                "summary": "Export meetings as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["upcoming", "past", "all"]}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/meetings/{id}": {
            "get": {
                "tags": ["Meetings"],
                "summary": "Get meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings/{id}/cancel": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Cancel meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already cancelled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings/{id}/notes": {
            "put": {
                "tags": ["Meetings"],
                "summary": "Save meeting note",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingNoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Meetings"],
                "summary": "Delete meeting note",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/public/available-dates": {
            "get": {
                "tags": ["Public"],
                "summary": "Bookable dates of a month",
                "parameters": [
                    {"name": "event_type_id", "in": "query", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "required": true, "type": "string", "description": "YYYY-MM"},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Outside booking horizon", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/slots": {
            "get": {
                "tags": ["Public"],
                "summary": "Slots of one date",
                "parameters": [
                    {"name": "event_type_id", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/bookings": {
            "post": {
                "tags": ["Public"],
                "summary": "Book a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot no longer available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/bookings/cancel": {
            "post": {
                "tags": ["Public"],
                "summary": "Cancel through a signed link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InviteeCancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/bookings/{id}": {
            "get": {
                "tags": ["Public"],
                "summary": "Booking confirmation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/bookings/{id}/ics": {
            "get": {
                "tags": ["Public"],
                "summary": "Calendar invite",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document"}
                }
            }
        },
        "/public/pages/{username}": {
            "get": {
                "tags": ["Public"],
                "summary": "Host booking page",
                "parameters": [
                    {"name": "username", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/pages/{username}/{slug}": {
            "get": {
                "tags": ["Public"],
                "summary": "Event type booking page",
                "parameters": [
                    {"name": "username", "in": "path", "required": true, "type": "string"},
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Interval": {
            "type": "object",
            "properties": {
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "17:00"}
            },
            "required": ["start_time", "end_time"]
        },
        "WeeklyHours": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "is_enabled": {"type": "boolean"},
                "intervals": {"type": "array", "items": {"$ref": "#/definitions/Interval"}}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "schedule_id": {"type": "string"},
                "name": {"type": "string"},
                "timezone": {"type": "string"},
                "weekly_hours": {"type": "array", "items": {"$ref": "#/definitions/WeeklyHours"}}
            },
            "required": ["timezone", "weekly_hours"]
        },
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "timezone": {"type": "string"},
                "is_default": {"type": "boolean"}
            }
        },
        "TimezoneRequest": {
            "type": "object",
            "properties": {
                "timezone": {"type": "string"}
            },
            "required": ["timezone"]
        },
        "DateOverrideRequest": {
            "type": "object",
            "properties": {
                "schedule_id": {"type": "string"},
                "specific_date": {"type": "string", "format": "date"},
                "intervals": {"type": "array", "items": {"$ref": "#/definitions/Interval"}}
            },
            "required": ["specific_date"]
        },
        "EventTypeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "description": {"type": "string"},
                "duration_minutes": {"type": "integer", "minimum": 15, "maximum": 480},
                "color": {"type": "string", "example": "#3B82F6"},
                "location_type": {"type": "string", "enum": ["zoom", "phone", "in_person", "google_meet", "other"]},
                "location_details": {"type": "string"},
                "buffer_before_minutes": {"type": "integer"},
                "buffer_after_minutes": {"type": "integer"},
                "min_notice_hours": {"type": "integer"},
                "max_days_ahead": {"type": "integer"},
                "is_active": {"type": "boolean"}
            }
        },
        "CancelBookingRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "MeetingNoteRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "event_type_id": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "timezone": {"type": "string"},
                "invitee": {
                    "type": "object",
                    "properties": {
                        "name": {"type": "string"},
                        "email": {"type": "string", "format": "email"}
                    },
                    "required": ["name", "email"]
                },
                "guests": {"type": "array", "items": {"type": "string", "format": "email"}},
                "notes": {"type": "string"}
            },
            "required": ["event_type_id", "start_time", "timezone", "invitee"]
        },
        "InviteeCancelRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["token"]
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
