package roster

// Player is one registered player record in players.json. Field names
// match the export format consumed by the league site.
type Player struct {
	ID                   int64          `json:"id"`
	Name                 string         `json:"name"`
	Position             string         `json:"position"`
	Rating               int            `json:"rating"`
	Team                 string         `json:"team"`
	AverageScorePosition float64        `json:"averageScorePosition"`
	EstimatedWorthEbits  int64          `json:"estimatedWorthEbits"`
	NegativeTraits       map[string]any `json:"negativeTraits"`
	PositiveTraits       map[string]any `json:"positiveTraits"`
	AllTimeStats         map[string]any `json:"allTimeStats"`
	SteamAccountLink     string         `json:"steamAccountLink"`
}

// Defaults applied to newly registered players.
const (
	defaultPosition = "N/A"
	defaultRating   = 70
	defaultTeam     = "N/A"
	defaultWorth    = int64(100000)
)
