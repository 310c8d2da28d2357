package model

// DevelopmentLevel values the deep tier may attach to a result.
const (
	DevelopmentLow    = "Low"
	DevelopmentMedium = "Medium"
	DevelopmentHigh   = "High"
)

// ResultData is the terminal artifact of a completed assessment. It is built
// once from a successful finish call and never mutated; a depth upgrade clears
// it because an upgraded session re-enters the conversation.
type ResultData struct {
	MBTIType         string
	TypeName         string
	Group            string
	ConfidenceScore  int
	CognitiveStack   []string
	DevelopmentLevel string
	TotalRounds      int
	AnalysisReport   string
}

// QAEntry is one question/answer turn about a finished result. The Q&A
// transcript is separate from the assessment message sequence.
type QAEntry struct {
	Question string
	Answer   string
}
