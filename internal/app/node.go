package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rig/internal/adapters/journal"   //nolint:depguard // Wired in app layer
	"go.trai.ch/rig/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rig/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized components the CLI layer needs.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			scheduler.NodeID,
			logger.NodeID,
			journal.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			j, err := graft.Dep[ports.Journal](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, sched, log, j), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       a,
		Logger:    log,
		Telemetry: tel,
	}, nil
}
