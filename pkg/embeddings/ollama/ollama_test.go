package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recuerdo-dev/recuerdo/pkg/embeddings"
	"github.com/recuerdo-dev/recuerdo/pkg/embeddings/ollama"
)

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

var _ = Describe("Embedder", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts the model and input to /api/embed and returns the vector", func() {
		var got embedRequest
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())

			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.1, 0.2, 0.3}},
			})
		}

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: server.URL,
			Model:   "all-minilm",
		})
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(ctx, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))
		Expect(got.Model).To(Equal("all-minilm"))
		Expect(got.Input).To(Equal("hello"))
	})

	It("defaults the model when unconfigured", func() {
		var got embedRequest
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.1}},
			})
		}

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Model).To(Equal(ollama.DefaultEmbeddingModel))
	})

	It("rejects a vector of unexpected dimensionality", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.1, 0.2}},
			})
		}

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    server.URL,
			Dimensions: 3,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("expected 3"))
	})

	It("wraps non-200 responses in ErrEmbedding", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("rejects an empty embeddings array", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{},
			})
		}

		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("no embeddings"))
	})
})
