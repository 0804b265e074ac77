package replay

import "emergencyworldwide/internal/app/ports"

type Request struct {
	Name      string
	MissionID string
	// OccurredFrom and OccurredTo are Unix seconds; zero leaves the bound open.
	OccurredFrom int64
	OccurredTo   int64
	Limit        int
}

type Response struct {
	Events []ports.Event `json:"events"`
	// Missions maps each mission seen in Events to its latest journaled status.
	Missions map[string]string `json:"missions"`
}
