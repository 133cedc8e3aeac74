// Package bio defines the singleton biography record and its partial-update
// semantics.
//
// The biography is a single mutable profile row sharing the storage engine
// with the memory store. Updates distinguish three states per field: absent
// (preserve the stored value), explicit null (clear the field), and provided
// (replace, where an empty list is a real value). The distinction is modeled
// with the tagged Field type rather than sentinel values, so "null" can never
// be confused with the string "null".
package bio

import "context"

// Recognized field names, as accepted by Patch and used in tool arguments.
const (
	FieldNombre       = "nombre"
	FieldOcupacion    = "ocupacion"
	FieldUbicacion    = "ubicacion"
	FieldTimezone     = "timezone"
	FieldTecnologias  = "tecnologias"
	FieldHerramientas = "herramientas"
	FieldIdiomas      = "idiomas"
	FieldMascotas     = "mascotas"
)

// ScalarFields lists the four plain-text fields.
var ScalarFields = []string{FieldNombre, FieldOcupacion, FieldUbicacion, FieldTimezone}

// ListFields lists the four ordered-list fields.
var ListFields = []string{FieldTecnologias, FieldHerramientas, FieldIdiomas, FieldMascotas}

// IsScalarField reports whether name is a recognized scalar field.
func IsScalarField(name string) bool {
	for _, f := range ScalarFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsListField reports whether name is a recognized list field.
func IsListField(name string) bool {
	for _, f := range ListFields {
		if f == name {
			return true
		}
	}
	return false
}

// Biography is the singleton profile record. Nil pointers and nil slices
// mean "absent", which marshals as JSON null.
type Biography struct {
	Nombre    *string `json:"nombre"`
	Ocupacion *string `json:"ocupacion"`
	Ubicacion *string `json:"ubicacion"`
	Timezone  *string `json:"timezone"`

	Tecnologias  []string `json:"tecnologias"`
	Herramientas []string `json:"herramientas"`
	Idiomas      []string `json:"idiomas"`
	Mascotas     []string `json:"mascotas"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Update carries the tri-state fields of an upsert. A zero Update preserves
// everything.
type Update struct {
	Nombre    Field[string] `json:"nombre"`
	Ocupacion Field[string] `json:"ocupacion"`
	Ubicacion Field[string] `json:"ubicacion"`
	Timezone  Field[string] `json:"timezone"`

	Tecnologias  Field[[]string] `json:"tecnologias"`
	Herramientas Field[[]string] `json:"herramientas"`
	Idiomas      Field[[]string] `json:"idiomas"`
	Mascotas     Field[[]string] `json:"mascotas"`
}

// Apply folds the update into b, field by field. All eight fields follow the
// same absent/clear/set rule; that symmetry is a correctness property of the
// upsert operation, not a stylistic choice.
func (u Update) Apply(b *Biography) {
	applyScalar(u.Nombre, &b.Nombre)
	applyScalar(u.Ocupacion, &b.Ocupacion)
	applyScalar(u.Ubicacion, &b.Ubicacion)
	applyScalar(u.Timezone, &b.Timezone)

	applyList(u.Tecnologias, &b.Tecnologias)
	applyList(u.Herramientas, &b.Herramientas)
	applyList(u.Idiomas, &b.Idiomas)
	applyList(u.Mascotas, &b.Mascotas)
}

func applyScalar(f Field[string], dst **string) {
	switch {
	case f.Clears():
		*dst = nil
	case f.IsSet():
		v, _ := f.Get()
		*dst = &v
	}
}

func applyList(f Field[[]string], dst *[]string) {
	switch {
	case f.Clears():
		*dst = nil
	case f.IsSet():
		v, _ := f.Get()
		if v == nil {
			// A provided empty list is a real value, distinct from absent.
			v = []string{}
		}
		*dst = v
	}
}

// Store handles persistence of the singleton biography.
type Store interface {
	// Get retrieves the biography. Returns (nil, nil) when no record
	// exists yet; absence is a valid state, not an error.
	Get(ctx context.Context) (*Biography, error)

	// Upsert applies the update, creating the record if absent. Returns
	// true when a record was created.
	Upsert(ctx context.Context, update Update) (bool, error)

	// Patch sets a single recognized field. Returns (false, nil) without
	// mutating when no record exists; a patch never materializes one.
	// Unrecognized field names return ErrUnknownField. Scalar fields take
	// a string value, list fields a []string.
	Patch(ctx context.Context, field string, value any) (bool, error)

	// Close releases the store's resources.
	Close() error
}
