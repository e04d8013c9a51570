package traffic

// Level grades congestion and incident severity.
type Level string

const (
	LevelNone     Level = "NONE"
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelSevere   Level = "SEVERE"
)

var levelRank = map[Level]int{
	LevelNone:     0,
	LevelLow:      1,
	LevelModerate: 2,
	LevelHigh:     3,
	LevelSevere:   4,
}

// Below reports whether l is less severe than other.
func (l Level) Below(other Level) bool {
	return levelRank[l] < levelRank[other]
}

// FlowCongestion grades a flow reading by current/free-flow speed. A road
// closure is always SEVERE.
func FlowCongestion(currentSpeed, freeFlowSpeed float64, roadClosure bool) Level {
	if roadClosure {
		return LevelSevere
	}
	if freeFlowSpeed <= 0 {
		return LevelNone
	}

	ratio := currentSpeed / freeFlowSpeed
	switch {
	case ratio < 0.25:
		return LevelSevere
	case ratio < 0.5:
		return LevelHigh
	case ratio < 0.75:
		return LevelModerate
	case ratio < 0.9:
		return LevelLow
	default:
		return LevelNone
	}
}

// IncidentSeverity grades a TomTom magnitude of delay (0-4).
func IncidentSeverity(magnitude int) Level {
	switch {
	case magnitude >= 4:
		return LevelSevere
	case magnitude == 3:
		return LevelHigh
	case magnitude == 2:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Overall escalates the flow congestion using the incidents: any HIGH or
// SEVERE incident makes it SEVERE, otherwise more than three incidents lift
// it to at least HIGH.
func Overall(flow Level, incidents []Incident) Level {
	for _, in := range incidents {
		if in.Severity == LevelSevere || in.Severity == LevelHigh {
			return LevelSevere
		}
	}
	if len(incidents) > 3 && flow.Below(LevelHigh) {
		return LevelHigh
	}
	return flow
}

// Category names a TomTom icon category.
func Category(iconCategory int) string {
	switch iconCategory {
	case 1:
		return "ACCIDENT"
	case 2:
		return "FOG"
	case 3:
		return "DANGEROUS_CONDITIONS"
	case 4:
		return "RAIN"
	case 5:
		return "ICE"
	case 6:
		return "JAM"
	case 7:
		return "LANE_CLOSED"
	case 8:
		return "ROAD_CLOSED"
	case 9:
		return "ROAD_WORKS"
	case 10:
		return "WIND"
	case 11:
		return "FLOODING"
	case 14:
		return "BROKEN_DOWN_VEHICLE"
	default:
		return "UNKNOWN"
	}
}
