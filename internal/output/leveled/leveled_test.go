package leveled

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/slackline/internal/model"
)

type recorder struct {
	levels []model.Level
	closed bool
}

func (r *recorder) Write(_ context.Context, ev model.LogEvent) error {
	r.levels = append(r.levels, ev.Level)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestFiltersBelowMinimum(t *testing.T) {
	rec := &recorder{}
	l := New(rec, model.Warning)

	for lvl := model.Verbose; lvl <= model.Fatal; lvl++ {
		require.NoError(t, l.Write(context.Background(), model.LogEvent{Level: lvl}))
	}

	assert.Equal(t, []model.Level{model.Warning, model.Error, model.Fatal}, rec.levels)
}

func TestVerbosePassesEverything(t *testing.T) {
	rec := &recorder{}
	l := New(rec, model.Verbose)
	for lvl := model.Verbose; lvl <= model.Fatal; lvl++ {
		assert.True(t, l.Enabled(lvl), lvl.String())
	}
}

func TestCloseForwards(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, New(rec, model.Error).Close())
	assert.True(t, rec.closed)
}
