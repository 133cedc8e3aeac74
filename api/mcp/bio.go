package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/pkg/bio"
)

var (
	getBioToolName    = "get_user_bio"
	getBioDescription = "Retrieve the user's biography record. Reports when no biography has been set yet."

	setBioToolName    = "set_user_bio"
	setBioDescription = "Create or update the user's biography. Omitted fields keep their stored value, an explicit null clears a field, and any provided value (including an empty list) replaces it."

	updateBioToolName    = "update_user_bio"
	updateBioDescription = "Set a single biography field by name. Fails if no biography exists yet; use set_user_bio to create one."
)

// GetBioInput represents the (empty) input of get_user_bio.
type GetBioInput struct{}

// GetBioOutput represents the structured output of get_user_bio.
type GetBioOutput struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Exists  bool           `json:"exists"`
	Bio     *bio.Biography `json:"bio,omitempty"`
	Message string         `json:"message,omitempty"`
}

// SetBioInput represents the input arguments for set_user_bio. Every field
// is tri-state: absent preserves, null clears, a value replaces.
type SetBioInput struct {
	Nombre    bio.Field[string] `json:"nombre,omitzero"`
	Ocupacion bio.Field[string] `json:"ocupacion,omitzero"`
	Ubicacion bio.Field[string] `json:"ubicacion,omitzero"`
	Timezone  bio.Field[string] `json:"timezone,omitzero"`

	Tecnologias  bio.Field[[]string] `json:"tecnologias,omitzero"`
	Herramientas bio.Field[[]string] `json:"herramientas,omitzero"`
	Idiomas      bio.Field[[]string] `json:"idiomas,omitzero"`
	Mascotas     bio.Field[[]string] `json:"mascotas,omitzero"`
}

// SetBioOutput represents the structured output of set_user_bio.
type SetBioOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Created bool   `json:"created"`
}

// UpdateBioInput represents the input arguments for update_user_bio.
type UpdateBioInput struct {
	Field string `json:"field" jsonschema:"the biography field to set: nombre, ocupacion, ubicacion, timezone, tecnologias, herramientas, idiomas or mascotas"`
	Value any    `json:"value" jsonschema:"the new value: a string for scalar fields, a list of strings for list fields"`
}

// UpdateBioOutput represents the structured output of update_user_bio.
type UpdateBioOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
	Applied bool   `json:"applied"`
}

// setBioInputSchema builds the explicit input schema for set_user_bio.
// Schema inference cannot express the tri-state fields: each one must accept
// its value type or null, and absence must stay meaningful.
func setBioInputSchema() *jsonschema.Schema {
	scalar := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Types:       []string{"string", "null"},
			Description: desc,
		}
	}
	list := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Types:       []string{"array", "null"},
			Items:       &jsonschema.Schema{Type: "string"},
			Description: desc,
		}
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			bio.FieldNombre:       scalar("the user's name; null clears it"),
			bio.FieldOcupacion:    scalar("the user's occupation; null clears it"),
			bio.FieldUbicacion:    scalar("the user's location; null clears it"),
			bio.FieldTimezone:     scalar("the user's timezone; null clears it"),
			bio.FieldTecnologias:  list("technologies the user works with; null clears the list"),
			bio.FieldHerramientas: list("tools the user works with; null clears the list"),
			bio.FieldIdiomas:      list("languages the user speaks; null clears the list"),
			bio.FieldMascotas:     list("the user's pets; null clears the list"),
		},
	}
}

// handleGetBio processes a get_user_bio request.
func (s *Server) handleGetBio(ctx context.Context, _ *mcp.CallToolRequest, _ GetBioInput) (*mcp.CallToolResult, GetBioOutput, error) {
	b, err := s.config.BioStore.Get(ctx)
	if err != nil {
		s.config.Logger.Error("failed to get biography", zap.Error(err))
		output := GetBioOutput{Success: false, Error: fmt.Sprintf("getting biography: %v", err)}
		return result(output, true), output, nil
	}

	if b == nil {
		// No record yet is a valid state, not a fault.
		output := GetBioOutput{
			Success: true,
			Exists:  false,
			Message: "no biography set yet",
		}
		return result(output, false), output, nil
	}

	output := GetBioOutput{Success: true, Exists: true, Bio: b}
	return result(output, false), output, nil
}

// handleSetBio processes a set_user_bio request.
func (s *Server) handleSetBio(ctx context.Context, _ *mcp.CallToolRequest, input SetBioInput) (*mcp.CallToolResult, SetBioOutput, error) {
	update := bio.Update{
		Nombre:       input.Nombre,
		Ocupacion:    input.Ocupacion,
		Ubicacion:    input.Ubicacion,
		Timezone:     input.Timezone,
		Tecnologias:  input.Tecnologias,
		Herramientas: input.Herramientas,
		Idiomas:      input.Idiomas,
		Mascotas:     input.Mascotas,
	}

	created, err := s.config.BioStore.Upsert(ctx, update)
	if err != nil {
		s.config.Logger.Error("failed to upsert biography", zap.Error(err))
		output := SetBioOutput{Success: false, Error: fmt.Sprintf("setting biography: %v", err)}
		return result(output, true), output, nil
	}

	output := SetBioOutput{Success: true, Created: created}
	return result(output, false), output, nil
}

// handleUpdateBio processes an update_user_bio request.
func (s *Server) handleUpdateBio(ctx context.Context, _ *mcp.CallToolRequest, input UpdateBioInput) (*mcp.CallToolResult, UpdateBioOutput, error) {
	if input.Field == "" {
		output := UpdateBioOutput{Success: false, Error: "field is required"}
		return result(output, true), output, nil
	}

	applied, err := s.config.BioStore.Patch(ctx, input.Field, input.Value)
	switch {
	case errors.Is(err, bio.ErrUnknownField), errors.Is(err, bio.ErrInvalidValue):
		output := UpdateBioOutput{Success: false, Error: err.Error(), Field: input.Field}
		return result(output, true), output, nil
	case err != nil:
		s.config.Logger.Error("failed to patch biography",
			zap.String("field", input.Field),
			zap.Error(err),
		)
		output := UpdateBioOutput{Success: false, Error: fmt.Sprintf("updating biography: %v", err)}
		return result(output, true), output, nil
	}

	output := UpdateBioOutput{
		Success: applied,
		Field:   input.Field,
		Applied: applied,
	}
	if !applied {
		// A patch cannot materialize a record.
		output.Error = "no biography exists yet; use set_user_bio first"
	}
	return result(output, false), output, nil
}
