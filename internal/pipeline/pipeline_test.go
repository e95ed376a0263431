// Package pipeline holds P4 (pipeline round-trip): for every random page
// and every combination of enabled filters, read_page(write_page(p)) == p,
// and the page index observed on read matches the index passed on write.
package pipeline

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"toi/internal/pipeline/filter/checksum"
	"toi/internal/pipeline/filter/compress"
	"toi/internal/pipeline/filter/crypt"
)

func TestPipelineRoundTripsAcrossFilterCombinations(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	rng := rand.New(rand.NewSource(42))

	// Each "combination" is an ordered filter chain: write runs forward,
	// read runs in reverse, mirroring internal/module.Registry's
	// GetNextFilter chaining (§4.4).
	chains := [][]string{
		{"checksum"},
		{"compress"},
		{"crypt"},
		{"checksum", "compress"},
		{"compress", "crypt"},
		{"checksum", "compress", "crypt"},
	}

	for _, chain := range chains {
		t.Run(nameOf(chain), func(t *testing.T) {
			cs := checksum.New()
			cm := compress.New(0)
			cr, err := crypt.New(key)
			require.NoError(t, err)

			for i := 0; i < 20; i++ {
				page := make([]byte, 4096)
				if i%2 == 0 {
					rng.Read(page)
				} else {
					for j := range page {
						page[j] = byte(i)
					}
				}
				orig := append([]byte(nil), page...)
				idx := int64(i)

				for _, name := range chain {
					switch name {
					case "checksum":
						require.Zero(t, cs.WritePage(idx, page))
					case "compress":
						require.Zero(t, cm.WritePage(idx, page))
					case "crypt":
						require.Zero(t, cr.WritePage(idx, page))
					}
				}
				for fi := len(chain) - 1; fi >= 0; fi-- {
					switch chain[fi] {
					case "checksum":
						require.Zero(t, cs.ReadPage(idx, page))
					case "compress":
						require.Zero(t, cm.ReadPage(idx, page))
					case "crypt":
						require.Zero(t, cr.ReadPage(idx, page))
					}
				}
				require.Equal(t, orig, page, "chain %v page %d", chain, i)
			}
		})
	}
}

func nameOf(chain []string) string {
	s := ""
	for _, c := range chain {
		if s != "" {
			s += "+"
		}
		s += c
	}
	return s
}
