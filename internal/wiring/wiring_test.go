package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/app"
	_ "go.trai.ch/rig/internal/wiring"
)

func TestAppWiring(t *testing.T) {
	t.Chdir(t.TempDir())

	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
	require.NotNil(t, components.Telemetry)
}
