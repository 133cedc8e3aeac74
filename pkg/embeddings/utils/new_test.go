package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	embeddingutils "github.com/recuerdo-dev/recuerdo/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("builds an ollama embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
			TargetURL:    "http://localhost:11434",
			Model:        "all-minilm",
			Dimensions:   384,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).NotTo(BeNil())
		Expect(e.Close()).To(Succeed())
	})

	It("rejects an unsupported provider", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "acme",
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported embedding provider"))
	})
})
