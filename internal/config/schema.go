package config

// SchemaField describes one user-editable option for the host's settings form.
type SchemaField struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"` // "text" or "number"
}

// OptionsSchema lists the panel options in form order.
func OptionsSchema() []SchemaField {
	return []SchemaField{
		{Path: "imageUrl", Name: "Floorplan URL", Description: "Full URL of the floorplan image (svg, png, jpeg, webp)", Type: "text"},
		{Path: "topLeftLat", Name: "Top Left Latitude", Description: "Latitude of the top left image corner", Type: "number"},
		{Path: "topLeftLong", Name: "Top Left Longitude", Description: "Longitude of the top left image corner", Type: "number"},
		{Path: "bottomRightLat", Name: "Bottom Right Latitude", Description: "Latitude of the bottom right image corner", Type: "number"},
		{Path: "bottomRightLong", Name: "Bottom Right Longitude", Description: "Longitude of the bottom right image corner", Type: "number"},
		{Path: "destLat", Name: "Destination Latitude", Description: "Latitude of the destination", Type: "number"},
		{Path: "destLong", Name: "Destination Longitude", Description: "Longitude of the destination", Type: "number"},
	}
}
