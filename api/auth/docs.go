// Package auth registers the OpenAPI document of the auth service with swag.
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/mealvote"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/auth/login": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Log in",
                "description": "Authenticates an identity number (or phone) and password against a tenant.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "session issued"
                    },
                    "400": {
                        "description": "missing fields"
                    },
                    "401": {
                        "description": "wrong password"
                    },
                    "403": {
                        "description": "inactive account"
                    },
                    "404": {
                        "description": "user not found"
                    },
                    "423": {
                        "description": "account locked"
                    },
                    "429": {
                        "description": "rate limited"
                    },
                    "500": {
                        "description": "unexpected failure"
                    },
                    "503": {
                        "description": "maintenance"
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/authsdk.LoginRequest"
                        }
                    }
                ]
            }
        },
        "/v1/auth/logout": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Log out",
                "description": "Expires the session cookies.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/v1/auth/session": {
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Current session",
                "description": "Returns the claims of the verified session.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "not authenticated"
                    }
                },
                "security": [
                    {
                        "SessionCookie": []
                    },
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/v1/auth/switch-tenant": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Switch tenant",
                "description": "Reissues the session for another tenant the identity already holds a role in.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "missing tenantSlug"
                    },
                    "401": {
                        "description": "not authenticated"
                    },
                    "403": {
                        "description": "no access to tenant"
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/authsdk.SwitchTenantRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "SessionCookie": []
                    },
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/v1/security/unlock": {
            "post": {
                "tags": [
                    "Security"
                ],
                "summary": "Unlock an account",
                "description": "Deletes the login lock of an identity in a tenant.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "missing identityNumber"
                    },
                    "401": {
                        "description": "not authenticated"
                    },
                    "403": {
                        "description": "not an operator for the tenant"
                    },
                    "500": {
                        "description": "store unavailable"
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/authsdk.UnlockRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "SessionCookie": []
                    },
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/v1/security/bruteforce": {
            "get": {
                "tags": [
                    "Security"
                ],
                "summary": "Brute-force report",
                "description": "Aggregates counted login failures by identity and by IP.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "unknown range"
                    },
                    "401": {
                        "description": "not authenticated"
                    },
                    "403": {
                        "description": "not an operator for the tenant"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "in": "query",
                        "name": "range",
                        "description": "Long window",
                        "enum": [
                            "24h",
                            "7d",
                            "30d"
                        ]
                    },
                    {
                        "type": "string",
                        "in": "query",
                        "name": "tenant",
                        "description": "Tenant slug (master only)"
                    }
                ],
                "security": [
                    {
                        "SessionCookie": []
                    },
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/v1/tenants/{slug}": {
            "get": {
                "tags": [
                    "Tenants"
                ],
                "summary": "Tenant context",
                "description": "Public view of a tenant for the login page, including its maintenance flag.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "in": "path",
                        "name": "slug",
                        "required": true,
                        "description": "Tenant slug"
                    }
                ]
            }
        },
        "/livez": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Health Check Endpoint",
                "description": "Liveness probe.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status, uptime, version"
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Readiness Check Endpoint",
                "description": "Readiness probe.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status and checks"
                    },
                    "503": {
                        "description": "service not ready"
                    }
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "tags": [
                    "well-known"
                ],
                "summary": "Get JWKS",
                "description": "Returns the JSON Web Key Set used to verify session tokens.",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "The JSON Web Key Set"
                    }
                }
            }
        }
    },
    "definitions": {
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "identityNumber": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "tenantSlug": {
                    "type": "string"
                }
            },
            "required": [
                "identityNumber",
                "password"
            ]
        },
        "authsdk.SwitchTenantRequest": {
            "type": "object",
            "properties": {
                "tenantSlug": {
                    "type": "string"
                }
            },
            "required": [
                "tenantSlug"
            ]
        },
        "authsdk.UnlockRequest": {
            "type": "object",
            "properties": {
                "identityNumber": {
                    "type": "string"
                },
                "tenantSlug": {
                    "type": "string"
                }
            },
            "required": [
                "identityNumber"
            ]
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "SessionCookie": {
            "type": "apiKey",
            "name": "mv_session",
            "in": "cookie"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "MealVote Authentication Service API",
	Description:      "Multi-tenant login, tenant switching and login-security tooling for MealVote.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
