// Package openapi assembles the OpenAPI 3 document served at
// /openapi.json. The document is static; it is built and serialized once.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document builds the gateway's OpenAPI description.
func Document(version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "zlapi",
			Description: "Personal utility endpoints: scrobbler activity proxying, QR and barcode generation, dominant-colour extraction.",
			Version:     version,
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["apiKey"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "query",
			Name: "api_key",
		},
	}
	doc.Security = openapi3.SecurityRequirements{{"apiKey": {}}}

	doc.Components.Schemas["Envelope"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"ok":      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"status":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
				"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				"data":    &openapi3.SchemaRef{Value: &openapi3.Schema{}},
				"error":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			},
		},
	}

	doc.Paths = openapi3.NewPaths()
	addActivityPaths(doc)
	addImagePaths(doc)
	addSystemPaths(doc)
	return doc
}

func envelopeRef() *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/Envelope", nil)
}

// jsonResponses builds the standard response set for a JSON endpoint.
func jsonResponses(successDesc string) *openapi3.Responses {
	responses := openapi3.NewResponses()
	set := func(code int, desc string) {
		d := desc
		responses.Set(fmt.Sprint(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(envelopeRef()),
			},
		})
	}
	set(200, successDesc)
	set(400, "Invalid parameter")
	set(401, "Invalid API key")
	set(500, "Processing failure")
	return responses
}

func queryParam(name, desc string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).
			WithDescription(desc).
			WithSchema(schema),
	}
}

func intParam(name, desc string, min, max int) *openapi3.ParameterRef {
	lo, hi := float64(min), float64(max)
	return queryParam(name, desc, &openapi3.Schema{
		Type: &openapi3.Types{"integer"},
		Min:  &lo,
		Max:  &hi,
	})
}

func enumParam(name, desc string, values []string) *openapi3.ParameterRef {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return queryParam(name, desc, &openapi3.Schema{
		Type: &openapi3.Types{"string"},
		Enum: enum,
	})
}

func addActivityPaths(doc *openapi3.T) {
	doc.Paths.Set("/activity/now_playing", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"activity"},
			Summary:     "Currently playing track",
			Description: "Fetches the track currently playing on the scrobbler, if any.",
			OperationID: "getNowPlaying",
			Responses:   jsonResponses("Now playing data"),
		},
	})
	doc.Paths.Set("/activity/recent_tracks", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"activity"},
			Summary:     "Recently played tracks",
			OperationID: "getRecentTracks",
			Parameters: openapi3.Parameters{
				queryParam("limit", "Truncate the track list to this many entries.",
					&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
			},
			Responses: jsonResponses("Recent tracks data"),
		},
	})
}

func addImagePaths(doc *openapi3.T) {
	doc.Paths.Set("/images/qr", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"images"},
			Summary:     "Generate a QR code",
			OperationID: "getQRCode",
			Parameters: openapi3.Parameters{
				queryParam("data", "Data to encode, at most 1000 characters.", openapi3.NewStringSchema()),
				enumParam("filetype", "Output format.", []string{"PNG", "JPG", "JPEG", "GIF", "BMP", "SVG", "BASE64"}),
				intParam("size", "Pixels per module.", 1, 100),
				enumParam("error_correction", "Error correction level.", []string{"L", "M", "Q", "H"}),
				intParam("version", "Forced QR version; omit to fit automatically.", 1, 40),
				intParam("border", "Quiet-zone width in modules.", 1, 10),
				queryParam("fill_color", "Module colour: HTML name or hex.", openapi3.NewStringSchema()),
				queryParam("back_color", "Background colour: HTML name or hex.", openapi3.NewStringSchema()),
			},
			Responses: jsonResponses("QR code image or base64 envelope"),
		},
	})
	doc.Paths.Set("/images/barcode", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"images"},
			Summary:     "Generate a barcode",
			OperationID: "getBarcode",
			Parameters: openapi3.Parameters{
				queryParam("data", "Data to encode.", openapi3.NewStringSchema()),
				enumParam("barcode_type", "Barcode symbology.", []string{"code39", "ean13", "ean8", "upca", "code128"}),
			},
			Responses: jsonResponses("SVG barcode"),
		},
	})
	doc.Paths.Set("/images/dominant_colors", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"images"},
			Summary:     "Extract dominant colours from a remote image",
			OperationID: "getDominantColors",
			Parameters: openapi3.Parameters{
				queryParam("url", "Image URL (PNG, JPG, JPEG, GIF, BMP or WEBP).", openapi3.NewStringSchema()),
				intParam("n_colors", "Number of dominant colours to extract.", 1, 10),
			},
			Responses: jsonResponses("Dominant colours"),
		},
	})
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/system/api-key", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "List issued API keys (master key only)",
			OperationID: "listAPIKeys",
			Responses:   jsonResponses("Issued key records"),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Issue a new API key (master key only)",
			OperationID: "createAPIKey",
			Responses:   jsonResponses("The new key record"),
		},
	})
}

// Handler serves the document as JSON, marshaling it once on first use.
func Handler(version string) http.HandlerFunc {
	var (
		once sync.Once
		body []byte
		err  error
	)
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			body, err = json.Marshal(Document(version))
		})
		if err != nil {
			http.Error(w, "failed to render OpenAPI document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}
