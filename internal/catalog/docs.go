package catalog

import "strings"

// Endpoint documents one remote API route on the API docs page.
type Endpoint struct {
	Method      string
	Path        string
	Description string
	Params      string
	Body        string
	Example     string
	Response    string
}

// EmotionTag is an inline text tag the remote API maps to style parameters.
type EmotionTag struct {
	Tag          string
	Korean       string
	Exaggeration string
	CFGWeight    string
}

type RateLimit struct {
	Plan  string
	Limit string
}

// Endpoints returns the public API reference with examples against baseURL.
func Endpoints(baseURL string) []Endpoint {
	baseURL = strings.TrimRight(baseURL, "/")
	return []Endpoint{
		{
			Method:      "GET",
			Path:        "/voices",
			Description: "Get list of available voices",
			Params:      "language (optional): ko, en, ja, es, pt",
			Example:     `curl "` + baseURL + `/voices?language=ko"`,
			Response: `{
  "success": true,
  "total": 14,
  "voices": [
    {
      "voice_id": "ko_harry_ko",
      "name": "Harry KO",
      "language": "ko",
      "gender": "male"
    }
  ]
}`,
		},
		{
			Method:      "GET",
			Path:        "/voices/{voice_id}/audio",
			Description: "Get presigned URL for voice sample",
			Example:     `curl "` + baseURL + `/voices/ko_harry_ko/audio"`,
			Response: `{
  "success": true,
  "voice_id": "ko_harry_ko",
  "audio_url": "https://s3.amazonaws.com/...",
  "expires_in": 3600
}`,
		},
		{
			Method:      "POST",
			Path:        "/generate",
			Description: "Generate voice from text with emotion control",
			Body: `{
  "text": "Hello, world!",
  "voice_id": "ko_harry_ko",
  "language": "ko",
  "exaggeration": 0.5,
  "cfg_weight": 0.5
}`,
			Example: `curl -X POST "` + baseURL + `/generate" \
  -H "Content-Type: application/json" \
  -H "Authorization: Bearer $TOKEN" \
  -d '{"text": "Hello", "voice_id": "ko_harry_ko", "language": "ko", "exaggeration": 0.7, "cfg_weight": 0.3}'`,
			Response: `{
  "success": true,
  "job_id": "abc123",
  "status": "pending"
}`,
		},
		{
			Method:      "GET",
			Path:        "/jobs/{job_id}",
			Description: "Get job status and result",
			Example:     `curl "` + baseURL + `/jobs/abc123"`,
			Response: `{
  "success": true,
  "job": {
    "job_id": "abc123",
    "status": "completed",
    "result_url": "https://..."
  }
}`,
		},
	}
}

var voiceActorTags = []EmotionTag{
	{"[deadpan]", "[무표정]", "0.2", "0.6"},
	{"[flatly]", "[단조롭게]", "0.25", "0.6"},
	{"[seriously]", "[진지하게]", "0.35", "0.55"},
	{"[confused]", "[혼란]", "0.55", "0.45"},
	{"[surprised]", "[놀람]", "0.85", "0.3"},
	{"[whining]", "[칭얼]", "0.7", "0.35"},
	{"[thoughtfully]", "[생각하며]", "0.4", "0.35"},
	{"[hesitantly]", "[망설이며]", "0.45", "0.3"},
	{"[whispers]", "[속삭임]", "0.3", "0.2"},
	{"[gasps]", "[헐떡]", "0.9", "0.25"},
	{"[excited]", "[신남]", "0.85", "0.25"},
	{"[worried]", "[걱정]", "0.6", "0.4"},
	{"[nervous]", "[긴장]", "0.65", "0.4"},
	{"[sadly]", "[슬픔]", "0.55", "0.35"},
	{"[sorrowful]", "[비통]", "0.5", "0.3"},
	{"[calm]", "[차분]", "0.3", "0.5"},
	{"[hopefully]", "[희망]", "0.6", "0.4"},
	{"[mysteriously]", "[신비]", "0.5", "0.35"},
	{"[pause]", "-", "0.4", "0.3"},
}

var styleTags = []EmotionTag{
	{"[happy]", "[기쁨]", "0.8", "0.3"},
	{"[sad]", "-", "0.6", "0.4"},
	{"[angry]", "[화남]", "0.9", "0.3"},
	{"[fear]", "-", "0.7", "0.4"},
	{"[surprise]", "-", "0.85", "0.3"},
	{"[disgust]", "-", "0.7", "0.5"},
	{"[neutral]", "-", "0.5", "0.5"},
	{"[serious]", "-", "0.4", "0.6"},
	{"[cheerful]", "-", "0.75", "0.3"},
	{"[gentle]", "-", "0.4", "0.4"},
	{"[warm]", "[따뜻]", "0.55", "0.4"},
	{"[whisper]", "-", "0.3", "0.2"},
	{"[shout]", "[외침]", "0.95", "0.3"},
	{"[slow]", "-", "0.4", "0.2"},
	{"[fast]", "-", "0.6", "0.7"},
	{"[news]", "-", "0.35", "0.5"},
	{"[narration]", "-", "0.45", "0.3"},
	{"[storytelling]", "-", "0.7", "0.35"},
	{"[conversation]", "-", "0.55", "0.45"},
}

func VoiceActorTags() []EmotionTag { return append([]EmotionTag(nil), voiceActorTags...) }

func StyleTags() []EmotionTag { return append([]EmotionTag(nil), styleTags...) }

func RateLimits() []RateLimit {
	return []RateLimit{
		{Plan: "Free", Limit: "10 requests/minute"},
		{Plan: "Starter", Limit: "60 requests/minute"},
		{Plan: "Pro", Limit: "300 requests/minute"},
		{Plan: "Enterprise", Limit: "Custom limits"},
	}
}
