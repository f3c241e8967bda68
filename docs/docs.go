// Package docs holds the OpenAPI description served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a user account", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already registered"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Exchange credentials for a token pair", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh an access token", "responses": {"200": {"description": "OK"}}}},
        "/movies": {"get": {"tags": ["movies"], "summary": "List movies", "responses": {"200": {"description": "OK"}}}},
        "/movies/{id}": {"get": {"tags": ["movies"], "summary": "Get a movie", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/theaters": {"get": {"tags": ["theaters"], "summary": "List theaters", "responses": {"200": {"description": "OK"}}}},
        "/showtimes": {"get": {"tags": ["showtimes"], "summary": "List showtimes by movie, theater or date", "responses": {"200": {"description": "OK"}}}},
        "/showtimes/{id}/seats": {"get": {"tags": ["seats"], "summary": "Seat map with live occupancy", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/promotions/validate": {"post": {"tags": ["promotions"], "summary": "Quote a promotion code against a seat selection", "responses": {"200": {"description": "OK"}}}},
        "/bookings": {
            "get": {"tags": ["bookings"], "summary": "List my bookings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["bookings"], "summary": "Claim seats and create a pending booking", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid seat selection"}, "409": {"description": "Seat already taken"}, "503": {"description": "Showtime busy, retry"}}}
        },
        "/bookings/{id}": {"get": {"tags": ["bookings"], "summary": "Get a booking", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/bookings/{id}/cancel": {"post": {"tags": ["bookings"], "summary": "Cancel a booking before the cutoff", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Too late to cancel or not cancellable"}}}},
        "/bookings/{id}/qrcode": {"get": {"tags": ["bookings"], "summary": "Ticket QR code", "produces": ["image/png"], "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "PNG image"}}}},
        "/payments/{provider}/create": {"post": {"tags": ["payments"], "summary": "Start a wallet payment for a pending booking", "security": [{"BearerAuth": []}], "parameters": [{"name": "provider", "in": "path", "required": true, "type": "string", "enum": ["momo", "zalopay"]}], "responses": {"201": {"description": "Created"}, "400": {"description": "Payment method mismatch"}, "409": {"description": "Booking not payable or hold expired"}}}},
        "/payments/{provider}/callback": {"post": {"tags": ["payments"], "summary": "Signed provider callback", "parameters": [{"name": "provider", "in": "path", "required": true, "type": "string", "enum": ["momo", "zalopay"]}], "responses": {"200": {"description": "ZaloPay acknowledgement"}, "204": {"description": "MoMo acknowledgement"}}}},
        "/admin/bookings": {"get": {"tags": ["admin"], "summary": "List all bookings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/analytics/dashboard": {"get": {"tags": ["admin"], "summary": "Admin dashboard", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Cineplex API",
	Description:      "Cinema ticket booking: catalog, seat claims, wallet payments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
