package postgres

import (
	"testing"

	"zaanjob-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Lina", "%Lina%"},
		{"", "%%"},
		{"50%", `%50\%%`},
		{"first_last", `%first\_last%`},
		{`back\slash`, `%back\\slash%`},
		{`50%_a\b`, `%50\%\_a\\b%`},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, containsPattern(tc.in))
		})
	}
}

func TestEncodeDocuments(t *testing.T) {
	t.Run("Should default nil documents to empty JSON", func(t *testing.T) {
		doc, err := encodeDocuments(&domain.Resume{})
		require.NoError(t, err)

		assert.Equal(t, "[]", doc.education)
		assert.Equal(t, "[]", doc.experience)
		assert.Equal(t, "{}", doc.socialMedia)
		assert.Equal(t, "[]", doc.attachments)
		assert.Equal(t, "[]", doc.certifications)
	})

	t.Run("Should encode populated documents", func(t *testing.T) {
		doc, err := encodeDocuments(&domain.Resume{
			Experience: []domain.Experience{{Company: "Salon Lumière"}},
		})
		require.NoError(t, err)

		assert.Contains(t, doc.experience, `"company":"Salon Lumière"`)
		assert.Equal(t, "[]", doc.education)
	})
}
