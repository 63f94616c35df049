package domain_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// assertTopological checks that every prerequisite of a planned target
// precedes it and that no name appears twice.
func assertTopological(t *testing.T, r *domain.Registry, plan domain.Plan) {
	t.Helper()
	pos := make(map[string]int, plan.Len())
	for i, tgt := range plan.Targets() {
		name := tgt.Name.String()
		_, dup := pos[name]
		require.False(t, dup, "target %q planned twice", name)
		pos[name] = i
	}
	for i, tgt := range plan.Targets() {
		for _, dep := range tgt.Prerequisites {
			j, ok := pos[dep.String()]
			require.True(t, ok, "prerequisite %q of %q missing from plan", dep, tgt.Name)
			assert.Less(t, j, i, "prerequisite %q must run before %q", dep, tgt.Name)
		}
		_, err := r.Lookup(tgt.Name.String())
		require.NoError(t, err)
	}
}

func TestResolve_Order(t *testing.T) {
	tests := []struct {
		name      string
		targets   []*domain.Target
		requested string
		want      []string
	}{
		{
			name:      "single target",
			targets:   []*domain.Target{target("install")},
			requested: "install",
			want:      []string{"install"},
		},
		{
			name:      "chain",
			targets:   []*domain.Target{target("install"), target("test", "install"), target("lint", "test")},
			requested: "lint",
			want:      []string{"install", "test", "lint"},
		},
		{
			name: "shared prerequisite runs once at first position",
			targets: []*domain.Target{
				target("install"),
				target("test", "install"),
				target("lint", "install"),
				target("check", "test", "lint"),
			},
			requested: "check",
			want:      []string{"install", "test", "lint", "check"},
		},
		{
			name: "duplicate prerequisite entries",
			targets: []*domain.Target{
				target("install"),
				target("check", "install", "install"),
			},
			requested: "check",
			want:      []string{"install", "check"},
		},
		{
			name: "declaration order of prerequisites is kept",
			targets: []*domain.Target{
				target("c"), target("b"), target("a"),
				target("all", "c", "a", "b"),
			},
			requested: "all",
			want:      []string{"c", "a", "b", "all"},
		},
		{
			name: "unrelated targets are not planned",
			targets: []*domain.Target{
				target("install"),
				target("test", "install"),
				target("docs"),
			},
			requested: "test",
			want:      []string{"install", "test"},
		},
		{
			name: "diamond",
			targets: []*domain.Target{
				target("base"),
				target("left", "base"),
				target("right", "base"),
				target("top", "right", "left"),
			},
			requested: "top",
			want:      []string{"base", "right", "left", "top"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registryOf(t, tt.targets...)

			plan, err := r.Resolve(tt.requested)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, plan.Names()); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.requested, plan.Requested())
			assertTopological(t, r, plan)
		})
	}
}

func TestResolve_Cycle(t *testing.T) {
	tests := []struct {
		name      string
		targets   []*domain.Target
		requested string
		wantPath  []string
	}{
		{
			name:      "self loop",
			targets:   []*domain.Target{target("a", "a")},
			requested: "a",
			wantPath:  []string{"a", "a"},
		},
		{
			name:      "two nodes",
			targets:   []*domain.Target{target("a", "b"), target("b", "a")},
			requested: "a",
			wantPath:  []string{"a", "b", "a"},
		},
		{
			name:      "cycle below the requested target",
			targets:   []*domain.Target{target("top", "x"), target("x", "y"), target("y", "z"), target("z", "x")},
			requested: "top",
			wantPath:  []string{"x", "y", "z", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registryOf(t, tt.targets...)

			plan, err := r.Resolve(tt.requested)
			require.ErrorIs(t, err, domain.ErrCyclicDependency)
			assert.Equal(t, 0, plan.Len())

			var cycle *domain.CycleError
			require.ErrorAs(t, err, &cycle)
			if diff := cmp.Diff(tt.wantPath, cycle.Path); diff != "" {
				t.Errorf("cycle path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_UnknownTarget(t *testing.T) {
	t.Run("requested", func(t *testing.T) {
		r := registryOf(t, target("install"))
		_, err := r.Resolve("deploy")
		require.ErrorIs(t, err, domain.ErrUnknownTarget)
	})

	t.Run("prerequisite", func(t *testing.T) {
		r := registryOf(t, target("test", "install"))
		_, err := r.Resolve("test")
		require.ErrorIs(t, err, domain.ErrUnknownTarget)

		var zErr *zerr.Error
		require.True(t, errors.As(err, &zErr))
		assert.Equal(t, "test", zErr.Metadata()["required_by"])
		assert.Equal(t, "install", zErr.Metadata()["target"])
	})
}

func TestPlan_Describe(t *testing.T) {
	r := registryOf(t,
		target("install"),
		&domain.Target{
			Name:          domain.NewInternedString("run-all"),
			Prerequisites: domain.InternStrings([]string{"install"}),
			Mode:          domain.ModeFanOutJoin,
			Actions: []domain.Action{
				domain.Command{Script: "uvicorn api:app"},
				domain.Command{Argv: []string{"streamlit", "run", "app.py"}},
			},
		},
	)

	plan, err := r.Resolve("run-all")
	require.NoError(t, err)

	assert.Equal(t, []string{"install (phony)", "run-all [fanout x2]"}, plan.Describe())
	assert.Equal(t, "install -> run-all", plan.String())
}
