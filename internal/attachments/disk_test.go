package attachments

import (
	"context"
	"io"
	"strings"
	"testing"

	"eventreg/lib/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpenRemove(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := d.Save(ctx, "../../etc/cert.pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "cert.pdf", ref)

	stream, meta, err := d.Open(ctx, ref)
	require.NoError(t, err)
	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, int64(8), meta.ContentLength)

	require.NoError(t, d.Remove(ctx, ref))
	require.NoError(t, d.Remove(ctx, ref))
	_, _, err = d.Open(ctx, ref)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveRejectsOversize(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Save(ctx, "big.bin", strings.NewReader(strings.Repeat("x", 1<<20+1)))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = d.Open(ctx, "big.bin")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
