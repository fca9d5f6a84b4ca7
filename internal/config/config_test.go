package config

import (
	"testing"
	"time"

	"gocnwi/domain/sample"
	"gocnwi/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "LABEL_FIELD", "EXCLUDE_FIELDS", "VARIANCE_POLICY", "SEPARABILITY_WORKERS", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, sample.DefaultLabelField, cfg.Samples.LabelField)
	assert.Equal(t, sample.DefaultExcludedFields, cfg.Samples.ExcludeFields)
	assert.Equal(t, "infinity", cfg.Separability.VariancePolicy)
	assert.Equal(t, 4, cfg.Separability.Workers)
	assert.Equal(t, 100, cfg.Separability.HistogramBins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cnwi")
	t.Setenv("LABEL_FIELD", "class_name")
	t.Setenv("EXCLUDE_FIELDS", "POINT_X, POINT_Y,,geometry")
	t.Setenv("VARIANCE_POLICY", "strict")
	t.Setenv("SEPARABILITY_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, []string{"POINT_X", "POINT_Y", "geometry"}, cfg.Samples.ExcludeFields)

	opts := cfg.SampleOptions()
	assert.Equal(t, "class_name", opts.LabelField)
	assert.Equal(t, cfg.Samples.ExcludeFields, opts.Exclude)
	assert.Equal(t, "strict", cfg.Separability.VariancePolicy)
	assert.Equal(t, 2, cfg.Separability.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("VARIANCE_POLICY", "nan")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
