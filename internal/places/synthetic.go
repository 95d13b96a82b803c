package places

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

// syntheticGenerator produces deterministic fake candidate batches for
// development environments without provider credentials. The same
// (query, location, offset) triple always yields the same batch.
type syntheticGenerator struct {
	streets  []string
	suffixes []string
}

func newSyntheticGenerator() *syntheticGenerator {
	return &syntheticGenerator{
		streets: []string{
			"Rua das Flores", "Avenida Paulista", "Rua Augusta",
			"Avenida Brasil", "Rua XV de Novembro", "Rua da Consolação",
			"Avenida Atlântica", "Rua Sete de Setembro",
		},
		suffixes: []string{
			"Central", "do Bairro", "Express", "Premium", "da Esquina",
			"Popular", "Real", "Moderna", "Tradicional", "Familiar",
		},
	}
}

// Generate builds n candidates for the page starting at offset. Roughly one
// in ten rows has no phone so downstream phone handling stays honest.
func (g *syntheticGenerator) Generate(query, location string, offset, n int) []Candidate {
	seed := fnv.New64a()
	_, _ = seed.Write([]byte(fmt.Sprintf("%s|%s|%d", query, location, offset)))
	rng := rand.New(rand.NewSource(int64(seed.Sum64())))

	category := strings.TrimSpace(query)
	candidates := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		ordinal := offset + i + 1
		name := fmt.Sprintf("%s %s %d", titleCase(category), g.suffixes[rng.Intn(len(g.suffixes))], ordinal)

		phone := fmt.Sprintf("(11) 9%04d-%04d", rng.Intn(10000), rng.Intn(10000))
		if rng.Intn(10) == 0 {
			phone = ""
		}

		candidates = append(candidates, Candidate{
			Name:         name,
			Phone:        phone,
			Address:      fmt.Sprintf("%s, %d - %s", g.streets[rng.Intn(len(g.streets))], 100+rng.Intn(900), location),
			Category:     category,
			Website:      fmt.Sprintf("https://%s%d.com.br", slug(category), ordinal),
			Rating:       3.0 + float64(rng.Intn(21))/10.0,
			ReviewsCount: rng.Intn(500),
		})
	}

	return candidates
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		// Decode the first rune; byte-slicing would mangle accented initials.
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}
