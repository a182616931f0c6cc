package veo

// operation mirrors the long-running operation envelope returned by the API.
type operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error,omitempty"`
	Response *videoResponse  `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// videoResponse covers every response shape the Veo model family is known to
// produce. Different model versions nest the generated video differently.
type videoResponse struct {
	GenerateVideoResponse   *generateVideoResponse `json:"generateVideoResponse,omitempty"`
	GeneratedVideos         []generatedVideo       `json:"generatedVideos,omitempty"`
	Videos                  []videoRef             `json:"videos,omitempty"`
	RaiMediaFilteredReasons []string               `json:"raiMediaFilteredReasons,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples        []generatedVideo `json:"generatedSamples,omitempty"`
	GeneratedVideos         []generatedVideo `json:"generatedVideos,omitempty"`
	RaiMediaFilteredReasons []string         `json:"raiMediaFilteredReasons,omitempty"`
}

type generatedVideo struct {
	Video videoRef `json:"video"`
}

type videoRef struct {
	URI string `json:"uri,omitempty"`
}

// uriStrategy is one named, pure lookup of the artifact URI in a known
// response shape. Adding support for a new model version means appending a
// strategy, not branching inline.
type uriStrategy struct {
	name    string
	extract func(*videoResponse) string
}

// uriStrategies is evaluated in priority order; the first non-empty URI wins.
var uriStrategies = []uriStrategy{
	{
		name: "generateVideoResponse.generatedSamples",
		extract: func(r *videoResponse) string {
			if r.GenerateVideoResponse == nil {
				return ""
			}
			return firstURI(r.GenerateVideoResponse.GeneratedSamples)
		},
	},
	{
		name: "generateVideoResponse.generatedVideos",
		extract: func(r *videoResponse) string {
			if r.GenerateVideoResponse == nil {
				return ""
			}
			return firstURI(r.GenerateVideoResponse.GeneratedVideos)
		},
	},
	{
		name: "generatedVideos",
		extract: func(r *videoResponse) string {
			return firstURI(r.GeneratedVideos)
		},
	},
	{
		name: "videos",
		extract: func(r *videoResponse) string {
			for _, v := range r.Videos {
				if v.URI != "" {
					return v.URI
				}
			}
			return ""
		},
	},
}

// ExtractVideoURI walks the known response shapes in priority order and
// returns the first artifact URI found, along with the name of the strategy
// that matched.
func ExtractVideoURI(r *videoResponse) (uri, strategy string, ok bool) {
	if r == nil {
		return "", "", false
	}
	for _, s := range uriStrategies {
		if uri := s.extract(r); uri != "" {
			return uri, s.name, true
		}
	}
	return "", "", false
}

// FilteredReason reports the first safety-filter rejection reason present in
// any known location of the response.
func FilteredReason(r *videoResponse) (string, bool) {
	if r == nil {
		return "", false
	}
	if r.GenerateVideoResponse != nil {
		for _, reason := range r.GenerateVideoResponse.RaiMediaFilteredReasons {
			if reason != "" {
				return reason, true
			}
		}
	}
	for _, reason := range r.RaiMediaFilteredReasons {
		if reason != "" {
			return reason, true
		}
	}
	return "", false
}

func firstURI(videos []generatedVideo) string {
	for _, v := range videos {
		if v.Video.URI != "" {
			return v.Video.URI
		}
	}
	return ""
}
