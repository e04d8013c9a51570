package maps

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
)

// WeatherAPIClient fetches current conditions from WeatherAPI.com.
type WeatherAPIClient struct {
	baseClient
	apiKey string
}

// NewWeatherAPIClient creates a WeatherAPI.com client.
func NewWeatherAPIClient(cfg config.NavigationConfig, logger *logging.Logger, tracer *Tracer) *WeatherAPIClient {
	return &WeatherAPIClient{
		baseClient: newBaseClient(ProviderWeatherAPI, cfg.WeatherBaseURL, cfg.WeatherTimeout, logger, tracer),
		apiKey:     cfg.WeatherAPIKey,
	}
}

// Enabled reports whether an API key is configured.
func (c *WeatherAPIClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// CurrentConditions is the subset of current.json the service uses.
type CurrentConditions struct {
	LocationName  string
	Region        string
	Country       string
	LocalTime     string
	TempC         float64
	FeelsLikeC    float64
	Humidity      int
	PrecipMM      float64
	WindKPH       float64
	GustKPH       float64
	WindDirection string
	VisibilityKM  float64
	UV            float64
	Condition     string
	ConditionCode int
	IsDay         bool
	LastUpdated   string
}

// Current returns the current conditions at p.
func (c *WeatherAPIClient) Current(ctx context.Context, p geo.Point) (*CurrentConditions, error) {
	if !c.Enabled() {
		return nil, ErrProviderDisabled
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", fmt.Sprintf("%f,%f", p.Lat, p.Lng))
	params.Set("aqi", "no")

	var apiResp struct {
		Location struct {
			Name      string `json:"name"`
			Region    string `json:"region"`
			Country   string `json:"country"`
			LocalTime string `json:"localtime"`
		} `json:"location"`
		Current struct {
			LastUpdated string  `json:"last_updated"`
			TempC       float64 `json:"temp_c"`
			FeelsLikeC  float64 `json:"feelslike_c"`
			Humidity    int     `json:"humidity"`
			PrecipMM    float64 `json:"precip_mm"`
			WindKPH     float64 `json:"wind_kph"`
			GustKPH     float64 `json:"gust_kph"`
			WindDir     string  `json:"wind_dir"`
			VisKM       float64 `json:"vis_km"`
			UV          float64 `json:"uv"`
			IsDay       int     `json:"is_day"`
			Condition   struct {
				Text string `json:"text"`
				Code int    `json:"code"`
			} `json:"condition"`
		} `json:"current"`
	}

	reqURL := fmt.Sprintf("%s/v1/current.json?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "current", reqURL, nil, &apiResp); err != nil {
		return nil, err
	}

	cur := apiResp.Current
	c.logger.Debug("current weather fetched", "location", apiResp.Location.Name, "condition", cur.Condition.Text)

	return &CurrentConditions{
		LocationName:  apiResp.Location.Name,
		Region:        apiResp.Location.Region,
		Country:       apiResp.Location.Country,
		LocalTime:     apiResp.Location.LocalTime,
		TempC:         cur.TempC,
		FeelsLikeC:    cur.FeelsLikeC,
		Humidity:      cur.Humidity,
		PrecipMM:      cur.PrecipMM,
		WindKPH:       cur.WindKPH,
		GustKPH:       cur.GustKPH,
		WindDirection: cur.WindDir,
		VisibilityKM:  cur.VisKM,
		UV:            cur.UV,
		Condition:     cur.Condition.Text,
		ConditionCode: cur.Condition.Code,
		IsDay:         cur.IsDay == 1,
		LastUpdated:   cur.LastUpdated,
	}, nil
}
