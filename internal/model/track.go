package model

// Track is the projection of a scrobbled track returned by the activity
// endpoints.
type Track struct {
	Artist string `json:"artist"`
	Name   string `json:"name"`
	Album  string `json:"album"`
	URL    string `json:"url"`
	Image  string `json:"image"`
}

// DominantColors holds the result of a dominant-colour extraction.
type DominantColors struct {
	HexColors []string `json:"hex_colors"`
	RGBColors [][]int  `json:"rgb_colors"`
}
