package debugprofile

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/require"

	"toi/internal/ioacct"
)

func TestBuildProducesOneSamplePerStep(t *testing.T) {
	snap := ioacct.Snapshot{PageIONs: 100, HeaderIONs: 20, AtomicCopyNs: 5, OtherNs: 1}
	p := Build(snap)
	require.NoError(t, p.CheckValid())
	require.Len(t, p.Sample, 4)

	total := int64(0)
	for _, s := range p.Sample {
		total += s.Value[0]
	}
	require.EqualValues(t, 126, total)
}

func TestWriteProducesParsableProfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ioacct.Snapshot{PageIONs: 7}))

	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.NoError(t, parsed.CheckValid())
	require.Len(t, parsed.Sample, 4)
}
