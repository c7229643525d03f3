package domain

import (
	"time"
)

// PinStatus is the lifecycle state of a pin.
type PinStatus string

const (
	StatusActive     PinStatus = "active"
	StatusProcessing PinStatus = "processing"
	StatusDeleted    PinStatus = "deleted"
	StatusReported   PinStatus = "reported"
)

// ValidStatus reports whether s is one of the known pin statuses.
func ValidStatus(s PinStatus) bool {
	switch s {
	case StatusActive, StatusProcessing, StatusDeleted, StatusReported:
		return true
	}
	return false
}

// TimeTag is one of four fixed day segments assigned to a pin.
type TimeTag string

const (
	TimeTagMorning TimeTag = "morning"
	TimeTagMidday  TimeTag = "midday"
	TimeTagEvening TimeTag = "evening"
	TimeTagNight   TimeTag = "night"
)

// ValidTimeTag reports whether t is one of the known day segments.
func ValidTimeTag(t TimeTag) bool {
	switch t {
	case TimeTagMorning, TimeTagMidday, TimeTagEvening, TimeTagNight:
		return true
	}
	return false
}

// TimeTagFor buckets a capture time into a day segment:
// 06:00-12:00 morning, 12:00-18:00 midday, 18:00-24:00 evening, else night.
func TimeTagFor(t time.Time) TimeTag {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return TimeTagMorning
	case h >= 12 && h < 18:
		return TimeTagMidday
	case h >= 18:
		return TimeTagEvening
	default:
		return TimeTagNight
	}
}

// AudioFormat is the container format of a pin's recording.
type AudioFormat string

const (
	FormatWebM AudioFormat = "webm"
	FormatMP3  AudioFormat = "mp3"
	FormatWAV  AudioFormat = "wav"
)

// ValidAudioFormat reports whether f is a supported audio format.
func ValidAudioFormat(f AudioFormat) bool {
	switch f {
	case FormatWebM, FormatMP3, FormatWAV:
		return true
	}
	return false
}

// MaxAudioDurationSeconds is the hard cap on recording length.
const MaxAudioDurationSeconds = 600

// AudioRef describes a stored recording.
type AudioRef struct {
	URL             string      `json:"url"`
	DurationSeconds float64     `json:"duration_seconds"`
	Format          AudioFormat `json:"format"`
}

// Weather is an optional capture-time weather snapshot.
type Weather struct {
	Temperature float64  `json:"temperature"`
	Condition   string   `json:"condition"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"` // percent, 0-100
}

// AICategories is the classification block of an AI annotation.
type AICategories struct {
	Emotion    string  `json:"emotion"`
	Topic      string  `json:"topic"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"` // 0-1
}

// AIAnalysis is the optional annotation attached after async audio analysis.
type AIAnalysis struct {
	Transcription string       `json:"transcription"`
	Categories    AICategories `json:"categories"`
	Summary       string       `json:"summary,omitempty"`
}

// Pin is a geotagged audio recording.
type Pin struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	Location     Location       `json:"location"`
	Audio        AudioRef       `json:"audio"`
	Weather      *Weather       `json:"weather,omitempty"`
	TimeTag      TimeTag        `json:"time_tag"`
	Title        string         `json:"title,omitempty"`
	Status       PinStatus      `json:"status"`
	ReportReason string         `json:"report_reason,omitempty"`
	AIAnalysis   *AIAnalysis    `json:"ai_analysis,omitempty"`
	DeviceInfo   map[string]any `json:"device_info,omitempty"`
	Distance     *float64       `json:"distance,omitempty"` // computed field, km
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
