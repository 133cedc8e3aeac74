package mcp

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/recuerdo-dev/recuerdo/pkg/utils/test"
)

var _ = Describe("Memory tools", func() {
	var (
		server   *Server
		embedder *testutils.MockEmbedder
		db       *sql.DB
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server, embedder, db = newTestServer()
	})

	AfterEach(func() {
		db.Close()
	})

	saveMemory := func(id, text string) {
		res, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{ID: id, Text: text})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(output.Success).To(BeTrue())
	}

	Describe("save_memory", func() {
		It("saves a new memory", func() {
			res, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{
				ID:       "m1",
				Text:     "likes black coffee",
				Metadata: map[string]any{"topic": "taste"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.ID).To(Equal("m1"))
			Expect(output.WasUpdate).To(BeFalse())
		})

		It("reports an overwrite on re-save", func() {
			saveMemory("m1", "first")

			_, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{ID: "m1", Text: "second"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Success).To(BeTrue())
			Expect(output.WasUpdate).To(BeTrue())
		})

		It("rejects a missing id", func() {
			res, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{Text: "no id"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Success).To(BeFalse())
			Expect(output.Error).To(ContainSubstring("id is required"))
		})

		It("rejects missing text", func() {
			res, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{ID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Error).To(ContainSubstring("text is required"))
		})

		It("reports provider failures as tool errors", func() {
			embedder.FailOn = "poison"

			res, output, err := server.handleSaveMemory(ctx, nil, SaveMemoryInput{ID: "m1", Text: "poison"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Success).To(BeFalse())
		})
	})

	Describe("search_memory", func() {
		It("flags an empty store without consulting the provider", func() {
			embedder.FailOn = "anything"

			res, output, err := server.handleSearchMemory(ctx, nil, SearchMemoryInput{Query: "anything"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Count).To(BeZero())
			Expect(output.Results).To(BeEmpty())
			Expect(output.Message).To(ContainSubstring("no memories stored yet"))
		})

		It("returns matching memories ranked by similarity", func() {
			embedder.Embeddings["coffee preferences"] = []float32{1, 0, 0}
			embedder.Embeddings["likes espresso"] = []float32{0.9, 0.1, 0}
			embedder.Embeddings["owns a bicycle"] = []float32{0, 0, 1}

			saveMemory("espresso", "likes espresso")
			saveMemory("bicycle", "owns a bicycle")

			_, output, err := server.handleSearchMemory(ctx, nil, SearchMemoryInput{Query: "coffee preferences"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Success).To(BeTrue())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].ID).To(Equal("espresso"))
			Expect(output.Message).To(BeEmpty())
		})

		It("distinguishes no matches from an empty store", func() {
			embedder.Embeddings["coffee preferences"] = []float32{1, 0, 0}
			embedder.Embeddings["owns a bicycle"] = []float32{0, 0, 1}

			saveMemory("bicycle", "owns a bicycle")

			_, output, err := server.handleSearchMemory(ctx, nil, SearchMemoryInput{Query: "coffee preferences"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Success).To(BeTrue())
			Expect(output.Count).To(BeZero())
			Expect(output.Results).To(BeEmpty())
			Expect(output.Message).To(BeEmpty())
		})

		It("honors n_results and threshold", func() {
			embedder.Embeddings["query"] = []float32{1, 0, 0}
			embedder.Embeddings["near"] = []float32{0.95, 0.05, 0}
			embedder.Embeddings["nearer"] = []float32{1, 0.01, 0}

			saveMemory("near", "near")
			saveMemory("nearer", "nearer")

			threshold := 0.0
			_, output, err := server.handleSearchMemory(ctx, nil, SearchMemoryInput{
				Query:     "query",
				NResults:  1,
				Threshold: &threshold,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].ID).To(Equal("nearer"))
		})

		It("rejects a missing query", func() {
			res, output, err := server.handleSearchMemory(ctx, nil, SearchMemoryInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Error).To(ContainSubstring("query is required"))
		})
	})

	Describe("get_memory", func() {
		It("retrieves a saved memory", func() {
			saveMemory("m1", "full text here")

			res, output, err := server.handleGetMemory(ctx, nil, GetMemoryInput{ID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Memory).NotTo(BeNil())
			Expect(output.Memory.Text).To(Equal("full text here"))
		})

		It("reports a missing id without a tool error", func() {
			res, output, err := server.handleGetMemory(ctx, nil, GetMemoryInput{ID: "ghost"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeFalse())
			Expect(output.Error).To(ContainSubstring("memory not found"))
		})

		It("rejects a missing id argument", func() {
			res, _, err := server.handleGetMemory(ctx, nil, GetMemoryInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("delete_memory", func() {
		It("deletes an existing memory", func() {
			saveMemory("m1", "ephemeral")

			res, output, err := server.handleDeleteMemory(ctx, nil, DeleteMemoryInput{ID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Deleted).To(BeTrue())
		})

		It("reports a missing id without a tool error", func() {
			res, output, err := server.handleDeleteMemory(ctx, nil, DeleteMemoryInput{ID: "ghost"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeFalse())
			Expect(output.Deleted).To(BeFalse())
			Expect(output.Error).To(ContainSubstring("memory not found"))
		})
	})

	Describe("list_all_memories", func() {
		It("returns an empty list for an empty store", func() {
			res, output, err := server.handleListMemories(ctx, nil, ListMemoriesInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Success).To(BeTrue())
			Expect(output.Count).To(BeZero())
			Expect(output.Memories).To(BeEmpty())
		})

		It("lists every saved memory", func() {
			saveMemory("m1", "one")
			saveMemory("m2", "two")

			_, output, err := server.handleListMemories(ctx, nil, ListMemoriesInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Success).To(BeTrue())
			Expect(output.Count).To(Equal(2))
		})
	})
})
