package bio_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recuerdo-dev/recuerdo/pkg/bio"
)

var _ = Describe("Field", func() {
	Describe("JSON decoding into an Update", func() {
		It("leaves omitted fields unset", func() {
			var u bio.Update
			Expect(json.Unmarshal([]byte(`{}`), &u)).To(Succeed())

			Expect(u.Nombre.IsSet()).To(BeFalse())
			Expect(u.Nombre.Clears()).To(BeFalse())
			Expect(u.Tecnologias.IsSet()).To(BeFalse())
			Expect(u.Tecnologias.Clears()).To(BeFalse())
		})

		It("decodes explicit null as a clear", func() {
			var u bio.Update
			Expect(json.Unmarshal([]byte(`{"nombre": null, "idiomas": null}`), &u)).To(Succeed())

			Expect(u.Nombre.Clears()).To(BeTrue())
			Expect(u.Nombre.IsSet()).To(BeFalse())
			Expect(u.Idiomas.Clears()).To(BeTrue())
		})

		It("decodes provided values as set", func() {
			var u bio.Update
			input := `{"nombre": "Alba", "tecnologias": ["go", "sqlite"]}`
			Expect(json.Unmarshal([]byte(input), &u)).To(Succeed())

			name, ok := u.Nombre.Get()
			Expect(ok).To(BeTrue())
			Expect(name).To(Equal("Alba"))

			techs, ok := u.Tecnologias.Get()
			Expect(ok).To(BeTrue())
			Expect(techs).To(Equal([]string{"go", "sqlite"}))
		})

		It("decodes an empty list as set, not clear", func() {
			var u bio.Update
			Expect(json.Unmarshal([]byte(`{"mascotas": []}`), &u)).To(Succeed())

			Expect(u.Mascotas.IsSet()).To(BeTrue())
			Expect(u.Mascotas.Clears()).To(BeFalse())
		})

		It("rejects a value of the wrong type", func() {
			var u bio.Update
			Expect(json.Unmarshal([]byte(`{"nombre": 42}`), &u)).NotTo(Succeed())
		})
	})

	Describe("Apply", func() {
		It("replaces, clears, and preserves independently", func() {
			ocupacion := "carpenter"
			b := &bio.Biography{
				Nombre:      strPtr("Alba"),
				Ocupacion:   &ocupacion,
				Tecnologias: []string{"go"},
				Idiomas:     []string{"es"},
			}

			u := bio.Update{
				Nombre:      bio.Set("Alba Reyes"),
				Ocupacion:   bio.Clear[string](),
				Tecnologias: bio.Set([]string{"go", "zig"}),
				// Idiomas omitted: preserved.
			}
			u.Apply(b)

			Expect(*b.Nombre).To(Equal("Alba Reyes"))
			Expect(b.Ocupacion).To(BeNil())
			Expect(b.Tecnologias).To(Equal([]string{"go", "zig"}))
			Expect(b.Idiomas).To(Equal([]string{"es"}))
		})

		It("normalizes a provided nil list to an empty list", func() {
			b := &bio.Biography{Mascotas: []string{"cat"}}

			u := bio.Update{Mascotas: bio.Set[[]string](nil)}
			u.Apply(b)

			Expect(b.Mascotas).NotTo(BeNil())
			Expect(b.Mascotas).To(BeEmpty())
		})

		It("a zero Update preserves everything", func() {
			b := &bio.Biography{
				Nombre:  strPtr("Alba"),
				Idiomas: []string{"es", "en"},
			}

			bio.Update{}.Apply(b)

			Expect(*b.Nombre).To(Equal("Alba"))
			Expect(b.Idiomas).To(Equal([]string{"es", "en"}))
		})
	})

	Describe("field name helpers", func() {
		It("classifies every recognized field exactly once", func() {
			for _, f := range bio.ScalarFields {
				Expect(bio.IsScalarField(f)).To(BeTrue())
				Expect(bio.IsListField(f)).To(BeFalse())
			}
			for _, f := range bio.ListFields {
				Expect(bio.IsListField(f)).To(BeTrue())
				Expect(bio.IsScalarField(f)).To(BeFalse())
			}
			Expect(bio.IsScalarField("favorite_color")).To(BeFalse())
			Expect(bio.IsListField("favorite_color")).To(BeFalse())
		})
	})
})

func strPtr(s string) *string {
	return &s
}
