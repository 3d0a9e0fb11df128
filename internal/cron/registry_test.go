package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	reg, err := NewRegistry(namedJob("outbox-retention"), nil, namedJob("low-stock-alert"))
	require.NoError(t, err)

	jobs := reg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "outbox-retention", jobs[0].Name())
	assert.Equal(t, "low-stock-alert", jobs[1].Name())

	jobs[0] = nil
	assert.NotNil(t, reg.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(namedJob("a"), namedJob("a"))
	assert.Error(t, err)

	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Error(t, reg.Register(namedJob("")))
}
