// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
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
        "/estimates": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "List estimates",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page (max 200)", "name": "pageSize", "in": "query"},
                    {"enum": ["draft", "submitted", "approved", "declined"], "type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Search by title, number or customer name", "name": "search", "in": "query"},
                    {"enum": ["number", "title", "customerName", "status", "totalAfterAdjustments", "netMarginPct", "createdAt", "updatedAt"], "type": "string", "description": "Sort field", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort order", "name": "sortOrder", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PaginatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Create estimate",
                "parameters": [
                    {"description": "Estimate data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CreateEstimateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/estimates/calculate": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Calculate estimate",
                "description": "Compute line totals, estimate totals and profitability without saving anything",
                "parameters": [
                    {"description": "Line items and optional settings", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CalculateEstimateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.CalculationDTO"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/estimates/{id}": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Get estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Update estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"description": "Estimate data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UpdateEstimateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}},
                    "409": {"description": "Estimate is not a draft", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "tags": ["Estimates"],
                "summary": "Delete estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Estimate is not a draft", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/estimates/{id}/items": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Add line item",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"description": "Line item data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CreateLineItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}}
                }
            }
        },
        "/estimates/{id}/items/order": {
            "put": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Reorder line items",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"description": "Line item IDs in display order", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ReorderLineItemsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}}
                }
            }
        },
        "/estimates/{id}/items/{itemId}": {
            "put": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Update line item",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "format": "uuid", "description": "Line item ID", "name": "itemId", "in": "path", "required": true},
                    {"description": "Line item data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UpdateLineItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Remove line item",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "format": "uuid", "description": "Line item ID", "name": "itemId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}}
                }
            }
        },
        "/estimates/{id}/submit": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Submit estimate",
                "description": "Submit a draft estimate. Rejected with 422 when the net margin is below the business minimum.",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}},
                    "409": {"description": "Estimate is not a draft", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "422": {"description": "Margin below minimum or settings missing", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/estimates/{id}/status": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Approve or decline estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"description": "Target status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UpdateEstimateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}},
                    "409": {"description": "Estimate is not submitted", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/estimates/{id}/duplicate": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Duplicate estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.EstimateDTO"}}
                }
            }
        },
        "/estimates/{id}/categories": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Category summary",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/estimate.CategorySummary"}}}
                }
            }
        },
        "/estimates/{id}/export": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Estimates"],
                "summary": "Export estimate",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.EstimateExportDTO"}}
                }
            }
        },
        "/exports/{path}": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Exports"],
                "summary": "Download export",
                "parameters": [
                    {"type": "string", "description": "Storage path returned by the export endpoint", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/settings": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Get business settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BusinessSettingsDTO"}},
                    "404": {"description": "Settings not configured", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Save business settings",
                "parameters": [
                    {"description": "Settings", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.SettingsInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BusinessSettingsDTO"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/settings/indirect-rate": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Recalculate indirect rate",
                "parameters": [
                    {"description": "Indirect expenses and labor units", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.RecalculateIndirectRateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BusinessSettingsDTO"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "domain.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "domain.PaginatedResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "domain.LineItemInput": {
            "type": "object",
            "required": ["name", "type"],
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "type": {"type": "string", "enum": ["labor", "material", "inventory_materials", "job_supplies", "non_inventory_materials"]},
                "category": {"type": "string"},
                "unit": {"type": "string"},
                "baseQuantity": {"type": "number", "minimum": 0, "maximum": 1000000000},
                "wastePercentage": {"type": "number", "minimum": 0, "maximum": 100},
                "unitPrice": {"type": "number", "minimum": -1000000000000, "maximum": 1000000000000},
                "costPrice": {"type": "number", "minimum": -1000000000000, "maximum": 1000000000000},
                "adjustmentAmount": {"type": "number", "minimum": -1000000000000, "maximum": 1000000000000},
                "taxable": {"type": "boolean"},
                "hours": {"type": "number", "minimum": 0, "maximum": 100000}
            }
        },
        "domain.CreateLineItemRequest": {
            "allOf": [
                {"$ref": "#/definitions/domain.LineItemInput"},
                {"type": "object", "properties": {"displayOrder": {"type": "integer"}}}
            ]
        },
        "domain.UpdateLineItemRequest": {
            "allOf": [
                {"$ref": "#/definitions/domain.LineItemInput"},
                {"type": "object", "properties": {"displayOrder": {"type": "integer", "minimum": 0, "description": "Omit to keep the current position"}}}
            ]
        },
        "domain.ReorderLineItemsRequest": {
            "type": "object",
            "required": ["orderedIds"],
            "properties": {
                "orderedIds": {"type": "array", "items": {"type": "string", "format": "uuid"}}
            }
        },
        "domain.CreateEstimateRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "customerName": {"type": "string"},
                "notes": {"type": "string"},
                "overallAdjustment": {"type": "number"},
                "lineItems": {"type": "array", "items": {"$ref": "#/definitions/domain.CreateLineItemRequest"}}
            }
        },
        "domain.UpdateEstimateRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "customerName": {"type": "string"},
                "notes": {"type": "string"},
                "overallAdjustment": {"type": "number"}
            }
        },
        "domain.UpdateEstimateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "declined"]}
            }
        },
        "domain.CalculateEstimateRequest": {
            "type": "object",
            "properties": {
                "lineItems": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItemInput"}},
                "overallAdjustment": {"type": "number"},
                "settings": {"$ref": "#/definitions/domain.SettingsInput"}
            }
        },
        "domain.SettingsInput": {
            "type": "object",
            "required": ["subscriptionType"],
            "properties": {
                "taxRate": {"type": "number", "minimum": 0, "maximum": 1},
                "minimumProfitMargin": {"type": "number", "minimum": 0},
                "includeIndirectExpenseInEstimates": {"type": "boolean"},
                "lastCalculatedIndirectRate": {"type": "number", "minimum": 0},
                "subscriptionType": {"type": "string", "enum": ["Trial", "Starter", "Partner", "Enterprise", "Enterprise Annual", "Inactive"]}
            }
        },
        "domain.RecalculateIndirectRateRequest": {
            "type": "object",
            "properties": {
                "indirectExpenses": {"type": "number", "minimum": 0},
                "laborUnits": {"type": "number"}
            }
        },
        "domain.BusinessSettingsDTO": {
            "type": "object",
            "properties": {
                "businessId": {"type": "string", "format": "uuid"},
                "taxRate": {"type": "number"},
                "minimumProfitMargin": {"type": "number"},
                "includeIndirectExpenseInEstimates": {"type": "boolean"},
                "lastCalculatedIndirectRate": {"type": "number"},
                "indirectRateCalculatedAt": {"type": "string"},
                "subscriptionType": {"type": "string"},
                "partnerFeeRate": {"type": "number"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.LineItemDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "estimateId": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "type": {"type": "string"},
                "category": {"type": "string"},
                "unit": {"type": "string"},
                "baseQuantity": {"type": "number"},
                "wastePercentage": {"type": "number"},
                "quantity": {"type": "number"},
                "unitPrice": {"type": "number"},
                "costPrice": {"type": "number"},
                "adjustmentAmount": {"type": "number"},
                "total": {"type": "number"},
                "taxable": {"type": "boolean"},
                "hours": {"type": "number"},
                "displayOrder": {"type": "integer"}
            }
        },
        "estimate.Totals": {
            "type": "object",
            "properties": {
                "subtotal": {"type": "number"},
                "taxableBase": {"type": "number"},
                "taxAmount": {"type": "number"},
                "totalAfterAdjustments": {"type": "number"},
                "estimatedLaborCost": {"type": "number"},
                "estimatedMaterialsCost": {"type": "number"},
                "estimatedHours": {"type": "number"}
            }
        },
        "estimate.Profitability": {
            "type": "object",
            "properties": {
                "sellingPrice": {"type": "number"},
                "directCost": {"type": "number"},
                "grossProfit": {"type": "number"},
                "grossMarginPct": {"type": "number"},
                "indirectCostApplied": {"type": "number"},
                "partnerFeeRate": {"type": "number"},
                "partnerFeeApplied": {"type": "number"},
                "totalCostForProfitability": {"type": "number"},
                "netProfit": {"type": "number"},
                "netMarginPct": {"type": "number"},
                "minimumProfitMargin": {"type": "number"},
                "isMarginError": {"type": "boolean"}
            }
        },
        "estimate.CategorySummary": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "itemCount": {"type": "integer"},
                "total": {"type": "number"},
                "directCost": {"type": "number"},
                "estimatedHours": {"type": "number"}
            }
        },
        "domain.EstimateDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "businessId": {"type": "string", "format": "uuid"},
                "number": {"type": "string"},
                "title": {"type": "string"},
                "customerName": {"type": "string"},
                "notes": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "submitted", "approved", "declined"]},
                "overallAdjustment": {"type": "number"},
                "lineItems": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItemDTO"}},
                "totals": {"$ref": "#/definitions/estimate.Totals"},
                "profitability": {"$ref": "#/definitions/estimate.Profitability"},
                "submittedAt": {"type": "string"},
                "createdById": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.CalculationDTO": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "quantity": {"type": "number"},
                            "total": {"type": "number"}
                        }
                    }
                },
                "totals": {"$ref": "#/definitions/estimate.Totals"},
                "profitability": {"$ref": "#/definitions/estimate.Profitability"},
                "categories": {"type": "array", "items": {"$ref": "#/definitions/estimate.CategorySummary"}}
            }
        },
        "domain.EstimateExportDTO": {
            "type": "object",
            "properties": {
                "estimateId": {"type": "string", "format": "uuid"},
                "storagePath": {"type": "string"},
                "size": {"type": "integer"},
                "exportedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "API key for service callers; requires X-Business-ID",
            "type": "apiKey",
            "name": "x-api-key",
            "in": "header"
        },
        "BearerAuth": {
            "description": "JWT Bearer token",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Estimate API",
	Description:      "Estimate pricing, profitability and approval API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
