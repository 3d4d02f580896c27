package domain

// NodeView is the derived, render-only state of one block.
type NodeView struct {
	Summary   string `json:"summary"`
	Connected bool   `json:"connected"`
	TextColor Color  `json:"textColor"`
}

// ViewportState is the serializable form of the canvas transform.
type ViewportState struct {
	Scale  float64 `json:"scale"`
	Pan    Point   `json:"pan"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FlowState is the complete state a host needs to render the canvas.
type FlowState struct {
	Blocks      []Block          `json:"blocks"`
	Connections []Connection     `json:"connections"`
	Views       map[int]NodeView `json:"views"`
	Viewport    ViewportState    `json:"viewport"`
	Interaction string           `json:"interaction"`
	NextID      int              `json:"nextId"`
}
