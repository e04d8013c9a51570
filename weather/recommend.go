package weather

// Severity grades how much the weather affects travel.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeveritySevere Severity = "SEVERE"
)

var severityRank = map[Severity]int{
	SeverityLow:    0,
	SeverityMedium: 1,
	SeverityHigh:   2,
	SeveritySevere: 3,
}

// Recommendation is travel advice for a worker.
type Recommendation struct {
	IsSafeToTravel bool     `json:"is_safe_to_travel"`
	Warnings       []string `json:"warnings"`
	Suggestions    []string `json:"suggestions"`
	Severity       Severity `json:"severity"`
}

// Advice messages.
const (
	WarningIce           = "Freezing temperatures: roads and paths may be icy"
	WarningHeat          = "Extreme heat: risk of heat exhaustion"
	WarningHeavyRain     = "Heavy rain: expect flooding and poor road conditions"
	WarningModerateRain  = "Moderate rain: roads may be slippery"
	WarningSevereWind    = "Severe winds: travel is not safe"
	WarningStrongWind    = "Strong winds: take care with ladders and high-sided vehicles"
	WarningFog           = "Very poor visibility: travel is not safe"
	WarningLowVisibility = "Reduced visibility: drive with care"

	SuggestionIce       = "Allow extra travel time and wear footwear with good grip"
	SuggestionHeat      = "Carry water and take regular breaks in the shade"
	SuggestionSunscreen = "High UV: wear sunscreen and cover up"
	SuggestionGood      = "Good conditions for travel"
)

// Recommend applies the weather rules in a fixed order. Severity only ever
// rises while the rules run.
func Recommend(s Snapshot) Recommendation {
	r := Recommendation{
		IsSafeToTravel: true,
		Warnings:       []string{},
		Suggestions:    []string{},
		Severity:       SeverityLow,
	}

	if s.TemperatureC < 0 {
		r.warn(WarningIce, SeverityMedium)
		r.Suggestions = append(r.Suggestions, SuggestionIce)
	}
	if s.TemperatureC > 35 {
		r.warn(WarningHeat, SeverityMedium)
		r.Suggestions = append(r.Suggestions, SuggestionHeat)
	}

	switch {
	case s.PrecipitationMM > 10:
		r.warn(WarningHeavyRain, SeverityHigh)
	case s.PrecipitationMM > 5:
		r.warn(WarningModerateRain, SeverityMedium)
	}

	switch {
	case s.WindKph > 60:
		r.warn(WarningSevereWind, SeveritySevere)
		r.IsSafeToTravel = false
	case s.WindKph > 40:
		r.warn(WarningStrongWind, SeverityHigh)
	}

	switch {
	case s.VisibilityKm < 1:
		r.warn(WarningFog, SeveritySevere)
		r.IsSafeToTravel = false
	case s.VisibilityKm < 5:
		r.warn(WarningLowVisibility, SeverityMedium)
	}

	if s.UV > 8 {
		r.Suggestions = append(r.Suggestions, SuggestionSunscreen)
	}

	if len(r.Warnings) == 0 {
		r.Suggestions = append(r.Suggestions, SuggestionGood)
	}
	return r
}

// warn appends a warning and raises the severity to at least floor.
func (r *Recommendation) warn(msg string, floor Severity) {
	r.Warnings = append(r.Warnings, msg)
	if severityRank[floor] > severityRank[r.Severity] {
		r.Severity = floor
	}
}
