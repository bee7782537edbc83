package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/geosocial/backend/internal/pipeline"
)

func TestClampProbability(t *testing.T) {
	assert.Equal(t, 0.0, clampProbability(-0.5))
	assert.Equal(t, 0.25, clampProbability(0.25))
	assert.Equal(t, 1.0, clampProbability(3))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, 2, distinct([]int64{4, 9, 4}))
	assert.Equal(t, 0, distinct(nil))
}

func TestDatagenThenRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "geosocial.yaml")
	yaml := fmt.Sprintf("pipeline:\n  dataDir: %s\n  sampleSize: 20\n  seed: 3\nstore:\n  path: %s\nlogging:\n  level: error\n",
		dir, filepath.Join(dir, "users.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	execute := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		require.NoError(t, rootCmd.ExecuteContext(context.Background()))
		return out.String()
	}

	execute("datagen", "--users", "300", "--seed", "9")
	var summary pipeline.RunSummary
	require.NoError(t, json.Unmarshal([]byte(execute("run")), &summary))

	assert.Equal(t, 300, summary.Users)
	assert.Equal(t, 20, summary.Nodes)
	assert.GreaterOrEqual(t, summary.Attempts, 1)
	assert.GreaterOrEqual(t, summary.AverageClustering, 0.0)
	assert.LessOrEqual(t, summary.AverageClustering, 1.0)

	assert.Contains(t, execute("report"), "Average clustering coefficient:")
}
