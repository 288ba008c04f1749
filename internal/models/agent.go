package models

// PickupAgent is a Pick Up Mtaani collection point, fetched from the partner
// directory or served from the built-in fallback list.
type PickupAgent struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Area     string `json:"area"`
	Zone     string `json:"zone"`
}
