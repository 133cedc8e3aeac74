package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recuerdo-dev/recuerdo/pkg/bio"
)

var _ = Describe("Biography tools", func() {
	var (
		server *Server
		db     *sql.DB
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server, _, db = newTestServer()
	})

	AfterEach(func() {
		db.Close()
	})

	Describe("get_user_bio", func() {
		It("reports absence before any bio is set", func() {
			res, output, err := server.handleGetBio(ctx, nil, GetBioInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Exists).To(BeFalse())
			Expect(output.Bio).To(BeNil())
			Expect(output.Message).To(ContainSubstring("no biography set yet"))
		})

		It("returns the stored biography", func() {
			_, _, err := server.handleSetBio(ctx, nil, SetBioInput{
				Nombre:  bio.Set("Alba"),
				Idiomas: bio.Set([]string{"es", "en"}),
			})
			Expect(err).NotTo(HaveOccurred())

			_, output, err := server.handleGetBio(ctx, nil, GetBioInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Exists).To(BeTrue())
			Expect(*output.Bio.Nombre).To(Equal("Alba"))
			Expect(output.Bio.Idiomas).To(Equal([]string{"es", "en"}))
		})
	})

	Describe("set_user_bio", func() {
		It("creates the bio on first call", func() {
			res, output, err := server.handleSetBio(ctx, nil, SetBioInput{
				Nombre: bio.Set("Alba"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Created).To(BeTrue())
		})

		It("merges on subsequent calls", func() {
			_, _, err := server.handleSetBio(ctx, nil, SetBioInput{
				Nombre:   bio.Set("Alba"),
				Timezone: bio.Set("Europe/Madrid"),
			})
			Expect(err).NotTo(HaveOccurred())

			_, output, err := server.handleSetBio(ctx, nil, SetBioInput{
				Ocupacion: bio.Set("carpenter"),
				Timezone:  bio.Clear[string](),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Created).To(BeFalse())

			_, getOutput, err := server.handleGetBio(ctx, nil, GetBioInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(*getOutput.Bio.Nombre).To(Equal("Alba"))
			Expect(*getOutput.Bio.Ocupacion).To(Equal("carpenter"))
			Expect(getOutput.Bio.Timezone).To(BeNil())
		})

		It("decodes tri-state fields from raw JSON arguments", func() {
			var input SetBioInput
			raw := `{"nombre": "Alba", "ocupacion": null, "mascotas": []}`
			Expect(json.Unmarshal([]byte(raw), &input)).To(Succeed())

			Expect(input.Nombre.IsSet()).To(BeTrue())
			Expect(input.Ocupacion.Clears()).To(BeTrue())
			Expect(input.Mascotas.IsSet()).To(BeTrue())
			Expect(input.Timezone.IsSet()).To(BeFalse())
			Expect(input.Timezone.Clears()).To(BeFalse())
		})

		It("publishes a schema accepting null for every field", func() {
			schema := setBioInputSchema()

			for _, field := range append(bio.ScalarFields, bio.ListFields...) {
				prop, ok := schema.Properties[field]
				Expect(ok).To(BeTrue(), "missing schema for %s", field)
				Expect(prop.Types).To(ContainElement("null"))
			}
		})
	})

	Describe("update_user_bio", func() {
		It("refuses to materialize a record", func() {
			res, output, err := server.handleUpdateBio(ctx, nil, UpdateBioInput{
				Field: bio.FieldNombre,
				Value: "Alba",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeFalse())
			Expect(output.Applied).To(BeFalse())
			Expect(output.Error).To(ContainSubstring("use set_user_bio first"))

			_, getOutput, err := server.handleGetBio(ctx, nil, GetBioInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(getOutput.Exists).To(BeFalse())
		})

		It("patches a single field of an existing bio", func() {
			_, _, err := server.handleSetBio(ctx, nil, SetBioInput{Nombre: bio.Set("Alba")})
			Expect(err).NotTo(HaveOccurred())

			res, output, err := server.handleUpdateBio(ctx, nil, UpdateBioInput{
				Field: bio.FieldTecnologias,
				Value: []any{"go", "sqlite"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Applied).To(BeTrue())

			_, getOutput, err := server.handleGetBio(ctx, nil, GetBioInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(getOutput.Bio.Tecnologias).To(Equal([]string{"go", "sqlite"}))
			Expect(*getOutput.Bio.Nombre).To(Equal("Alba"))
		})

		It("rejects an unknown field", func() {
			_, _, err := server.handleSetBio(ctx, nil, SetBioInput{})
			Expect(err).NotTo(HaveOccurred())

			res, output, err := server.handleUpdateBio(ctx, nil, UpdateBioInput{
				Field: "favorite_color",
				Value: "blue",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Success).To(BeFalse())
			Expect(output.Error).To(ContainSubstring("unknown biography field"))
		})

		It("rejects a mistyped value", func() {
			_, _, err := server.handleSetBio(ctx, nil, SetBioInput{})
			Expect(err).NotTo(HaveOccurred())

			res, output, err := server.handleUpdateBio(ctx, nil, UpdateBioInput{
				Field: bio.FieldIdiomas,
				Value: "spanish",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Error).To(ContainSubstring("list of strings"))
		})

		It("rejects an empty field name", func() {
			res, output, err := server.handleUpdateBio(ctx, nil, UpdateBioInput{Value: "x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Error).To(ContainSubstring("field is required"))
		})
	})
})
