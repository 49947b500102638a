// Topology construction for the simulated network
package netsim

import (
	"fmt"
	"math"
	"time"
)

// Kind names a topology layout.
type Kind string

const (
	PointToPoint Kind = "p2p"
	Star         Kind = "star"
	Bus          Kind = "bus"
	Ring         Kind = "ring"
	Mesh         Kind = "mesh"
)

// Kinds lists every supported layout.
var Kinds = []Kind{PointToPoint, Star, Bus, Ring, Mesh}

// LinkParams are the uniform per-link characteristics of a topology.
type LinkParams struct {
	Delay     time.Duration
	RateMbps  float64
	Loss      float64 // per-link drop probability in [0,1)
	QueuePkts int     // bottleneck queue capacity, packets
}

// Node is a switch or host in the layout.
type Node struct {
	ID string
}

// Link joins two nodes.
type Link struct {
	A, B *Node
}

// Topology is an assembled layout with one monitored client→server flow.
type Topology struct {
	Kind  Kind
	Nodes []*Node
	Links []*Link

	client *Node
	server *Node
	hops   int
	params LinkParams
}

// Build assembles a topology of n nodes. The client and server are chosen
// so the monitored path crosses the layout's characteristic hop count.
func Build(kind Kind, n int, p LinkParams) (*Topology, error) {
	if n < 3 {
		n = 3
	}
	if p.RateMbps <= 0 {
		return nil, fmt.Errorf("topology %s: link rate must be positive", kind)
	}
	if p.Loss < 0 || p.Loss >= 1 {
		return nil, fmt.Errorf("topology %s: link loss %v outside [0,1)", kind, p.Loss)
	}
	if p.QueuePkts <= 0 {
		p.QueuePkts = 50
	}

	t := &Topology{Kind: kind, params: p}
	switch kind {
	case PointToPoint:
		// client - router - server
		t.addNodes("client", "router", "server")
		t.connect(0, 1)
		t.connect(1, 2)
		t.client, t.server = t.Nodes[0], t.Nodes[2]
		t.hops = 2
	case Star:
		hub := t.addNode("hub")
		for i := 0; i < n-1; i++ {
			leaf := t.addNode(fmt.Sprintf("leaf-%d", i))
			t.Links = append(t.Links, &Link{A: hub, B: leaf})
		}
		t.client, t.server = t.Nodes[1], t.Nodes[len(t.Nodes)-1]
		t.hops = 2
	case Bus:
		for i := 0; i < n; i++ {
			t.addNode(fmt.Sprintf("node-%d", i))
		}
		for i := 0; i < n-1; i++ {
			t.connect(i, i+1)
		}
		t.client, t.server = t.Nodes[0], t.Nodes[n-1]
		t.hops = n - 1
	case Ring:
		for i := 0; i < n; i++ {
			t.addNode(fmt.Sprintf("node-%d", i))
		}
		for i := 0; i < n; i++ {
			t.connect(i, (i+1)%n)
		}
		t.client, t.server = t.Nodes[0], t.Nodes[n/2]
		t.hops = n / 2 // shorter arc
	case Mesh:
		for i := 0; i < n; i++ {
			t.addNode(fmt.Sprintf("node-%d", i))
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				t.connect(i, j)
			}
		}
		t.client, t.server = t.Nodes[0], t.Nodes[n-1]
		t.hops = 1
	default:
		return nil, fmt.Errorf("unknown topology kind %q", kind)
	}
	return t, nil
}

func (t *Topology) addNode(id string) *Node {
	n := &Node{ID: id}
	t.Nodes = append(t.Nodes, n)
	return n
}

func (t *Topology) addNodes(ids ...string) {
	for _, id := range ids {
		t.addNode(id)
	}
}

func (t *Topology) connect(i, j int) {
	t.Links = append(t.Links, &Link{A: t.Nodes[i], B: t.Nodes[j]})
}

// Path reduces the monitored client→server route to the figures the
// transport needs.
type Path struct {
	Hops      int
	OneWay    time.Duration
	RateMbps  float64
	Loss      float64 // combined drop probability over all hops
	QueuePkts int     // bottleneck queue capacity
}

// Path returns the monitored route's profile.
func (t *Topology) Path() Path {
	return Path{
		Hops:      t.hops,
		OneWay:    time.Duration(t.hops) * t.params.Delay,
		RateMbps:  t.params.RateMbps,
		Loss:      1 - math.Pow(1-t.params.Loss, float64(t.hops)),
		QueuePkts: t.params.QueuePkts,
	}
}

// BDPBytes is the path's bandwidth-delay product.
func (p Path) BDPBytes() float64 {
	return p.RateMbps * 1e6 / 8 * (2 * p.OneWay.Seconds())
}
