// Package schema defines the OrderExtraction document schema shared by the
// prompt builder, the extraction client, and the scoring engine.
//
// The canonical JSON schema is declared once as a map and used two ways:
//   - as the strict response_format constraint sent with every model request
//   - as the local validation schema applied to every model response
//
// Every scalar field is nullable but required: a conformant payload contains
// all keys, with null marking absence. Missing keys are a schema violation,
// not an empty value.
package schema

import "encoding/json"

// SchemaName identifies the structured output schema in API requests.
const SchemaName = "order_extraction_schema"

// Product is a single order line item.
type Product struct {
	Position    int    `json:"position"`
	ArticleCode string `json:"article_code"`
	Quantity    int    `json:"quantity"`
}

// OrderExtraction is the structured answer extracted from one email plus its
// PDF attachment. Scalar fields are pointers because null is meaningful: the
// document may genuinely not contain the value.
type OrderExtraction struct {
	BuyerCompanyName      *string   `json:"buyer_company_name"`
	BuyerPersonName       *string   `json:"buyer_person_name"`
	BuyerEmailAddress     *string   `json:"buyer_email_address"`
	OrderNumber           *string   `json:"order_number"`
	OrderDate             *string   `json:"order_date"`
	DeliveryAddressStreet *string   `json:"delivery_address_street"`
	DeliveryAddressCity   *string   `json:"delivery_address_city"`
	DeliveryAddressPostal *string   `json:"delivery_address_postal_code"`
	Products              []Product `json:"products"`
}

// ExtractionSchema is the JSON schema for order extraction output, in the
// json_schema response format wrapper expected by OpenAI-compatible APIs.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"buyer_company_name": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Name of the buying company",
				},
				"buyer_person_name": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Full name of the buyer person",
				},
				"buyer_email_address": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Email address of the buyer",
				},
				"order_number": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Order number from the PDF",
				},
				"order_date": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Order date in DD.MM.YYYY format",
				},
				"delivery_address_street": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Delivery street address including house number",
				},
				"delivery_address_city": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Delivery city",
				},
				"delivery_address_postal_code": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Delivery postal code",
				},
				"products": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"position": map[string]any{
								"type":        "integer",
								"description": "Position number of the product in the order",
							},
							"article_code": map[string]any{
								"type":        "string",
								"description": "Article/supplier code for the product",
							},
							"quantity": map[string]any{
								"type":        "integer",
								"description": "Quantity ordered",
							},
						},
						"required":             []string{"position", "article_code", "quantity"},
						"additionalProperties": false,
					},
					"description": "List of products in the order",
				},
			},
			"required": []string{
				"buyer_company_name",
				"buyer_person_name",
				"buyer_email_address",
				"order_number",
				"order_date",
				"delivery_address_street",
				"delivery_address_city",
				"delivery_address_postal_code",
				"products",
			},
			"additionalProperties": false,
		},
	},
}

// ResponseFormat returns the full json_schema response format wrapper as raw
// JSON, suitable for a chat completion request.
func ResponseFormat() json.RawMessage {
	b, err := json.Marshal(ExtractionSchema)
	if err != nil {
		// ExtractionSchema is a static literal; marshaling cannot fail.
		panic(err)
	}
	return b
}

// SchemaMap returns the inner schema document as a map, for APIs that take
// the schema as a structured value rather than raw JSON.
func SchemaMap() map[string]any {
	return ExtractionSchema["json_schema"].(map[string]any)["schema"].(map[string]any)
}

// ValidationSchema returns the inner schema document used for local
// validation of model responses.
func ValidationSchema() json.RawMessage {
	inner := ExtractionSchema["json_schema"].(map[string]any)["schema"]
	b, err := json.Marshal(inner)
	if err != nil {
		panic(err)
	}
	return b
}
