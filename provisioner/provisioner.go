// Package provisioner runs the wireserver provisioning handshake: fetch the goal
// state, parse it, build the readiness report and post it back.
//
// The fetch and report steps are retried with the shared backoff policy. Parse
// and build failures are deterministic for a given goal state and abort the run
// immediately. Runs are strictly sequential; a Provisioner is not meant to be
// used from several goroutines.
package provisioner

import (
	"log/slog"

	"github.com/ruteri/wireserver-ready-agent/goalstate"
	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/ruteri/wireserver-ready-agent/retry"
	"github.com/ruteri/wireserver-ready-agent/wireserver"
)

type Provisioner struct {
	WireServer  wireserver.WireServer
	RetryPolicy retry.Policy
	Log         *slog.Logger

	state State
}

func NewProvisioner(ws wireserver.WireServer, policy retry.Policy, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{
		WireServer:  ws,
		RetryPolicy: policy,
		Log:         log,
		state:       StateStart,
	}
}

// State returns the step the provisioner is in, or the terminal state after Do.
func (p *Provisioner) State() State {
	return p.state
}

// Do performs one handshake. On success the reported goal state is returned and
// the provisioner is in StateDone. On failure the returned error is an
// *AbortError and the provisioner is in StateAborted.
func (p *Provisioner) Do() (*interfaces.GoalState, error) {
	if p.Log == nil {
		p.Log = slog.Default()
	}

	p.transition(StateFetchingGoalState)
	p.Log.Info("Fetching goal state")
	raw, err := retry.Do(p.Log, p.RetryPolicy, interfaces.OpFetchGoalState, p.WireServer.FetchGoalState)
	if err != nil {
		return nil, p.abort(err)
	}

	p.transition(StateParsingGoalState)
	gs, err := goalstate.Parse(raw)
	if err != nil {
		return nil, p.abort(err)
	}
	p.Log.Info("Retrieved goal state", "incarnation", gs.Incarnation, "containerId", gs.ContainerID, "instanceId", gs.InstanceID)

	p.transition(StateBuildingReadiness)
	doc, err := goalstate.BuildReadinessDocument(gs)
	if err != nil {
		return nil, p.abort(err)
	}

	p.transition(StateReportingReadiness)
	p.Log.Info("Reporting readiness", "document", string(doc))
	err = retry.Run(p.Log, p.RetryPolicy, interfaces.OpReportReady, func() error {
		return p.WireServer.ReportReady(doc)
	})
	if err != nil {
		return nil, p.abort(err)
	}

	p.transition(StateDone)
	p.Log.Info("Reported ready", "incarnation", gs.Incarnation)
	return gs, nil
}

func (p *Provisioner) transition(next State) {
	p.Log.Debug("Provisioner state change", "from", p.state, "to", next)
	p.state = next
}

func (p *Provisioner) abort(err error) error {
	failed := p.state
	p.transition(StateAborted)
	return &AbortError{State: failed, Err: err}
}
