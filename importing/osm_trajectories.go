package importing

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"trajgrid/trajectory"
)

// ReadOsmFile reads trajectories from an OSM XML (.osm) or PBF (.pbf) file. Every way with at least one usable node
// becomes a trajectory with the ID of the way.
func ReadOsmFile(filename string) ([]*trajectory.Trajectory, error) {
	handler := newOsmTrajectoryHandler()
	err := NewOsmReader().ReadFile(filename, handler)
	if err != nil {
		return nil, err
	}
	return handler.trajectories, nil
}

// osmTrajectoryHandler turns every way into a trajectory. The samples are the nodes of the way in way order, stamped
// with the timestamp of the node version. Nodes without timestamp or with a timestamp not after the previous sample
// are skipped.
type osmTrajectoryHandler struct {
	nodes        map[osm.NodeID]trajectory.TgPair
	trajectories []*trajectory.Trajectory
	skippedNodes int
}

func newOsmTrajectoryHandler() *osmTrajectoryHandler {
	return &osmTrajectoryHandler{}
}

func (h *osmTrajectoryHandler) Name() string {
	return "OsmTrajectoryHandler"
}

func (h *osmTrajectoryHandler) Init() error {
	h.nodes = map[osm.NodeID]trajectory.TgPair{}
	h.trajectories = nil
	h.skippedNodes = 0
	return nil
}

func (h *osmTrajectoryHandler) HandleNode(node *osm.Node) error {
	h.nodes[node.ID] = trajectory.TgPair{
		Time:  node.Timestamp,
		Point: orb.Point{node.Lon, node.Lat},
	}
	return nil
}

func (h *osmTrajectoryHandler) HandleWay(way *osm.Way) error {
	t := trajectory.NewTrajectory(trajectory.ID(way.ID))

	for _, wayNode := range way.Nodes {
		pair, ok := h.nodes[wayNode.ID]
		if !ok || pair.Time.IsZero() {
			sigolo.Tracef("Skip node %d of way %d: unknown node or missing timestamp", wayNode.ID, way.ID)
			h.skippedNodes++
			continue
		}

		if len(t.TgPairs) > 0 && !pair.Time.After(t.TgPairs[len(t.TgPairs)-1].Time) {
			sigolo.Tracef("Skip node %d of way %d: timestamp %s is not after previous sample", wayNode.ID, way.ID, pair.Time)
			h.skippedNodes++
			continue
		}

		t.TgPairs = append(t.TgPairs, pair)
	}

	if len(t.TgPairs) > 0 {
		h.trajectories = append(h.trajectories, t)
	}

	return nil
}

func (h *osmTrajectoryHandler) Done() error {
	sigolo.Debugf("Created %d trajectories from OSM ways, skipped %d way nodes", len(h.trajectories), h.skippedNodes)
	h.nodes = nil
	return nil
}
