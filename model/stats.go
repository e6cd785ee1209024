package model

// TickStats is the per-tick observation record handed to listeners and
// exporters after every completed tick.
type TickStats struct {
	Tick        int     `json:"tick"`
	Reservoir   float64 `json:"reservoir"`
	ActiveNodes int     `json:"active_nodes"`
	VacuumScale float64 `json:"vacuum_scale"`
	MeanDensity float64 `json:"mean_density"`

	// Sweep accounting for the tick.
	Activations   int `json:"activations"`
	Deactivations int `json:"deactivations"`
	VoidedFlips   int `json:"voided_flips"`

	// Soliton clusters refunded this tick.
	ClusterRefunds int `json:"cluster_refunds"`
}
