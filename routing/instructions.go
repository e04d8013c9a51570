package routing

import (
	"strings"

	"github.com/rightfit/rightfit-navigation/maps"
)

// Instruction renders an OSRM step as a sentence such as
// "Turn left onto Baker Street".
func Instruction(s maps.OSRMStep) string {
	m := s.Maneuver
	modifier := m.Modifier

	var text string
	switch m.Type {
	case "depart":
		return withRoad("Head out", "on", s.Name)
	case "arrive":
		if modifier == "left" || modifier == "right" {
			return "Arrive at your destination on the " + modifier
		}
		return "Arrive at your destination"
	case "turn", "end of road":
		if modifier == "uturn" {
			text = "Make a U-turn"
		} else {
			text = "Turn " + orDefault(modifier, "ahead")
		}
		if m.Type == "end of road" {
			text += " at the end of the road"
		}
	case "new name", "continue":
		text = "Continue"
		if modifier != "" && modifier != "straight" {
			text += " " + modifier
		}
	case "merge":
		text = "Merge " + orDefault(modifier, "ahead")
	case "on ramp":
		text = "Take the ramp " + orDefault(modifier, "ahead")
	case "off ramp":
		text = "Take the exit " + orDefault(modifier, "ahead")
	case "fork":
		text = "Keep " + orDefault(modifier, "straight") + " at the fork"
	case "roundabout", "rotary", "roundabout turn":
		text = "Enter the roundabout"
		return withRoad(text, "and exit onto", s.Name)
	default:
		text = capitalize(strings.TrimSpace(m.Type + " " + modifier))
		if text == "" {
			text = "Continue"
		}
	}

	return withRoad(text, "onto", s.Name)
}

func maneuverName(m maps.OSRMManeuver) string {
	if m.Modifier == "" {
		return m.Type
	}
	return m.Type + " " + m.Modifier
}

func withRoad(text, preposition, road string) string {
	if road == "" {
		return text
	}
	return text + " " + preposition + " " + road
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
