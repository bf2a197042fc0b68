// Package docs is generated by swag from the handler annotations.
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
        "/api/auth/google": {
            "get": {
                "tags": ["auth"],
                "summary": "Start Google login",
                "responses": {
                    "302": {"description": "Found"},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/google/callback": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Google login callback",
                "parameters": [
                    {"type": "string", "description": "signed state", "name": "state", "in": "query", "required": true},
                    {"type": "string", "description": "authorization code", "name": "code", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.googleResp"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "login", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.loginResp"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "description": "Creates the user, its password account and a first workspace it owns.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register user",
                "parameters": [
                    {"description": "register", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.provisionResp"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/roles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["workspace"],
                "summary": "Role catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.roleResp"}}}
                }
            }
        },
        "/api/user/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SanitizedUser"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/workspace/{id}/permissions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workspace"],
                "summary": "Caller's role in a workspace",
                "parameters": [
                    {"type": "string", "description": "workspace id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.permissionsResp"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.SanitizedUser": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "current_workspace": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "is_active": {"type": "boolean"},
                "last_login": {"type": "string"},
                "name": {"type": "string"},
                "profile_picture": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "http.googleResp": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "user_id": {"type": "string"},
                "workspace_id": {"type": "string"}
            }
        },
        "http.loginReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.loginResp": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.SanitizedUser"}
            }
        },
        "http.permissionsResp": {
            "type": "object",
            "properties": {
                "permissions": {"type": "array", "items": {"type": "string"}},
                "role": {"type": "string"},
                "workspace_id": {"type": "string"}
            }
        },
        "http.provisionResp": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "workspace_id": {"type": "string"}
            }
        },
        "http.registerReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.roleResp": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Workspace API",
	Description:      "Registration, login and workspace provisioning.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
