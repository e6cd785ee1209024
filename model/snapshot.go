package model

// NodeState is the exported per-site field state.
type NodeState struct {
	ID      int     `json:"id"`
	Active  bool    `json:"active"`
	Phase   float64 `json:"phase"`
	Density float64 `json:"density"`
}

// EdgeState is an exported undirected edge with its TS flag.
type EdgeState struct {
	U  int  `json:"u"`
	V  int  `json:"v"`
	TS bool `json:"is_ts"`
}

// Snapshot is a complete, order-independent serialization of the field
// state at a tick boundary. Node and edge slices are emitted in the
// topology's stable order so snapshots of identical states are
// byte-identical, but consumers must not rely on ordering.
type Snapshot struct {
	Tick      int         `json:"tick"`
	Reservoir float64     `json:"reservoir"`
	Nodes     []NodeState `json:"nodes"`
	Edges     []EdgeState `json:"edges"`
}
