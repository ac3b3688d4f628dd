package bill

import "slices"

// Topic is an impact assessment area.
type Topic string

const (
	TopicInnovation Topic = "Digital Innovation"
	TopicSpeech     Topic = "Freedom of Speech"
	TopicPrivacy    Topic = "Privacy & Data Rights"
	TopicBusiness   Topic = "Business Environment"
)

var topics = []Topic{TopicInnovation, TopicSpeech, TopicPrivacy, TopicBusiness}

var topicKeys = map[Topic]string{
	TopicInnovation: "innovation",
	TopicSpeech:     "freedomOfSpeech",
	TopicPrivacy:    "privacy",
	TopicBusiness:   "business",
}

// Topics returns every topic in assessment order.
func Topics() []Topic {
	return slices.Clone(topics)
}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	return slices.Contains(topics, t)
}

// Key returns the published impact key for t.
func (t Topic) Key() string {
	return topicKeys[t]
}

// ValidImpactKey reports whether key names a published impact.
func ValidImpactKey(key string) bool {
	for _, k := range topicKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ImpactLevel rates a provision or topic on a nine-step scale from
// severe-negative to severe-positive.
type ImpactLevel string

const (
	SevereNegative ImpactLevel = "severe-negative"
	HighNegative   ImpactLevel = "high-negative"
	MediumNegative ImpactLevel = "medium-negative"
	LowNegative    ImpactLevel = "low-negative"
	Neutral        ImpactLevel = "neutral"
	LowPositive    ImpactLevel = "low-positive"
	MediumPositive ImpactLevel = "medium-positive"
	HighPositive   ImpactLevel = "high-positive"
	SeverePositive ImpactLevel = "severe-positive"
)

var impactLevels = []ImpactLevel{
	SevereNegative, HighNegative, MediumNegative, LowNegative,
	Neutral,
	LowPositive, MediumPositive, HighPositive, SeverePositive,
}

// ImpactLevels returns every level from most negative to most positive.
func ImpactLevels() []ImpactLevel {
	return slices.Clone(impactLevels)
}

// Valid reports whether l is one of the nine levels.
func (l ImpactLevel) Valid() bool {
	return slices.Contains(impactLevels, l)
}

// Severe reports whether l is at either extreme of the scale.
func (l ImpactLevel) Severe() bool {
	return l == SevereNegative || l == SeverePositive
}

// High reports whether l is one step in from either extreme.
func (l ImpactLevel) High() bool {
	return l == HighNegative || l == HighPositive
}

// Severity ranks a key concern.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

var severities = []Severity{Critical, High, Medium, Low}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return slices.Contains(severities, s)
}

// Rank orders severities from critical (0) to low (3). Unknown values sort last.
func (s Severity) Rank() int {
	if i := slices.Index(severities, s); i >= 0 {
		return i
	}
	return len(severities)
}

// Category classifies a section.
type Category string

const (
	Provision Category = "provision"
	Preamble  Category = "preamble"
	Meta      Category = "metadata"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == Provision || c == Preamble || c == Meta
}
