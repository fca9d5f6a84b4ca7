package container

import (
	"context"
	"testing"

	"gocnwi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(policy string) *config.Config {
	return &config.Config{
		Separability: config.SeparabilityConfig{VariancePolicy: policy, Workers: 2, HistogramBins: 10},
		Accuracy:     config.AccuracyConfig{VerifyTolerance: 1e-6},
		LogLevel:     "ERROR",
	}
}

func TestNew_WithoutDatabase(t *testing.T) {
	c, err := New(testConfig("strict"))
	require.NoError(t, err)

	assert.NotNil(t, c.Separability)
	assert.NotNil(t, c.Accuracy)
	assert.False(t, c.Reports.Enabled())
	assert.Nil(t, c.ReportRepo)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(testConfig("ignore"))
	assert.Error(t, err)

	c, err := New(testConfig(""))
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}
