package edit

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

func (e TextEdit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string  `json:"type"`
		ID       string  `json:"id"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Text     string  `json:"text"`
		Color    string  `json:"color"`
		FontSize float64 `json:"fontSize"`
	}{"text", e.ID, e.X, e.Y, e.Text, e.Color, e.FontSize})
}

func (e RectEdit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string  `json:"type"`
		ID     string  `json:"id"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Color  string  `json:"color"`
	}{"rect", e.ID, e.X, e.Y, e.Width, e.Height, e.Color})
}

func (e DrawEdit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string  `json:"type"`
		ID     string  `json:"id"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Points []Point `json:"points"`
		Color  string  `json:"color"`
	}{"draw", e.ID, e.X, e.Y, e.Points, e.Color})
}

func (e ImageEdit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string  `json:"type"`
		ID          string  `json:"id"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
		Width       float64 `json:"width"`
		Height      float64 `json:"height"`
		DataURL     string  `json:"dataUrl"`
		AspectRatio float64 `json:"aspectRatio"`
	}{"image", e.ID, e.X, e.Y, e.Width, e.Height, DataURL(e.Data), e.AspectRatio})
}

// DataURL encodes image bytes as a base64 data URL.
func DataURL(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
