// Package docs registers the OpenAPI description of the go-editpdf API with
// swag so that http-swagger can serve it.
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
		"/api/sessions/": {
			"post": {
				"tags": [
					"sessions"
				],
				"summary": "Create a new session",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/sessions/{sessionID}": {
			"delete": {
				"tags": [
					"sessions"
				],
				"summary": "Delete a session",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/document": {
			"post": {
				"tags": [
					"documents"
				],
				"summary": "Upload the document to edit",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			},
			"delete": {
				"tags": [
					"documents"
				],
				"summary": "Discard the document",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/state": {
			"get": {
				"tags": [
					"editor"
				],
				"summary": "Get editor state",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/tool": {
			"put": {
				"tags": [
					"editor"
				],
				"summary": "Select a tool",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/page": {
			"put": {
				"tags": [
					"editor"
				],
				"summary": "Change page",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/events": {
			"post": {
				"tags": [
					"editor"
				],
				"summary": "Send pointer events",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/placements": {
			"post": {
				"tags": [
					"editor"
				],
				"summary": "Place a signature or image",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/selection": {
			"delete": {
				"tags": [
					"editor"
				],
				"summary": "Delete the selected edit",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/overlay.png": {
			"get": {
				"tags": [
					"editor"
				],
				"summary": "Render the edit overlay",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/pages/{page}/preview.png": {
			"get": {
				"tags": [
					"editor"
				],
				"summary": "Render a page",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"name": "page",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/actions/export": {
			"post": {
				"tags": [
					"actions"
				],
				"summary": "Export the edited document",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/actions/images": {
			"post": {
				"tags": [
					"actions"
				],
				"summary": "Export pages as images",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/actions/delete-pages": {
			"post": {
				"tags": [
					"actions"
				],
				"summary": "Delete pages",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/sessions/{sessionID}/files/{filename}": {
			"get": {
				"tags": [
					"files"
				],
				"summary": "Download a result",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "sessionID",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "filename",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/images/compress": {
			"post": {
				"tags": [
					"tools"
				],
				"summary": "Compress an image into a size window",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/images/presets": {
			"get": {
				"tags": [
					"tools"
				],
				"summary": "List compression presets",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/compression/explanation": {
			"get": {
				"tags": [
					"ai"
				],
				"summary": "Explain a compression level",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/ai/{op}": {
			"post": {
				"tags": [
					"ai"
				],
				"summary": "Run an AI tool on an image or a page",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "op",
						"in": "path",
						"required": true
					}
				]
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "go-editpdf API",
	Description:      "Annotate PDF and image files with text, shapes, drawings, signatures and images, then export a flattened PDF.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
