package entity

import "github.com/joseph-ayodele/biodata-tracker/constants"

// SimilarProfile is a profile related to another through shared attributes.
// Shared maps the attribute kind (religion, caste, location, education,
// occupation) to the folded value both profiles have.
type SimilarProfile struct {
	Profile *Profile          `json:"profile"`
	Score   float64           `json:"score"`
	Shared  map[string]string `json:"shared"`
}

// GraphNode is a person or an attribute value in the relationship graph.
type GraphNode struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Age      *int              `json:"age,omitempty"`
	Gender   *constants.Gender `json:"gender,omitempty"`
	Location string            `json:"location,omitempty"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// GraphData is a nodes and edges view of approved profiles.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphStats counts the relationship graph.
type GraphStats struct {
	Persons      int `json:"persons"`
	Similarities int `json:"similarities"`
	Religions    int `json:"religions"`
	Castes       int `json:"castes"`
	Locations    int `json:"locations"`
}
