package samples

import (
	"context"
)

// WeatherDataInput is the input of the weather_data tool.
type WeatherDataInput struct {
	Location string `json:"location" jsonschema:"description=The location to get weather for"`
}

// Description returns the default description of the weather_data tool.
func (WeatherDataInput) Description() string {
	return "Get current weather information for a location."
}

// Weather is the current weather at a location.
type Weather struct {
	Location    string `json:"location"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
	Description string `json:"description"`
}

// WeatherData returns mock weather for the location.
func WeatherData(_ context.Context, in *WeatherDataInput) (*Weather, error) {
	return &Weather{
		Location:    in.Location,
		Temperature: 22,
		Condition:   "Partly Cloudy",
		Humidity:    65,
		WindSpeed:   12,
		Description: "Pleasant weather with some clouds",
	}, nil
}
