package analyzer

import (
	"bytes"
	"encoding/json"
	"strings"
)

var requiredKeys = []string{
	"relevance_score",
	"fit_verdict",
	"summary",
	"personalized_feedback",
	"missing_skills",
}

// StripCodeFences 去掉模型回复首尾的 markdown 代码块标记
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeResult 严格解析模型回复：缺字段或类型不符一律拒绝
func decodeResult(raw string) (*Result, error) {
	body := StripCodeFences(raw)
	if body == "" {
		return nil, newError(KindParse, nil, "Invalid JSON response from AI: empty reply")
	}
	if !json.Valid([]byte(body)) {
		return nil, newError(KindParse, nil, "Invalid JSON response from AI")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, newError(KindValidation, err, "AI response is not a JSON object")
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, newError(KindValidation, nil, "AI response is missing one or more required keys: %s", strings.Join(missing, ", "))
	}

	score, err := decodeScore(fields["relevance_score"])
	if err != nil {
		return nil, err
	}

	var verdictText string
	if err := decodeStrict(fields["fit_verdict"], &verdictText); err != nil {
		return nil, newError(KindValidation, err, "AI response 'fit_verdict' is not a string")
	}
	verdict, ok := ParseVerdict(verdictText)
	if !ok {
		return nil, newError(KindValidation, nil, "AI response 'fit_verdict' must be High, Medium or Low, got %q", verdictText)
	}

	res := &Result{RelevanceScore: score, FitVerdict: verdict}
	if err := decodeStrict(fields["summary"], &res.Summary); err != nil {
		return nil, newError(KindValidation, err, "AI response 'summary' is not a string")
	}
	if err := decodeStrict(fields["personalized_feedback"], &res.PersonalizedFeedback); err != nil {
		return nil, newError(KindValidation, err, "AI response 'personalized_feedback' is not a string")
	}
	if isNull(fields["missing_skills"]) {
		return nil, newError(KindValidation, nil, "AI response 'missing_skills' must be a list")
	}
	if err := decodeStrict(fields["missing_skills"], &res.MissingSkills); err != nil {
		return nil, newError(KindValidation, err, "AI response 'missing_skills' is not a list of strings")
	}
	if res.MissingSkills == nil {
		res.MissingSkills = []string{}
	}
	return res, nil
}

func decodeScore(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	// 只接受 JSON 整数字面量，85.0 / "85" / 8.5e1 都拒绝
	if len(trimmed) == 0 || bytes.ContainsAny(trimmed, ".eE\"") {
		return 0, newError(KindValidation, nil, "AI response 'relevance_score' is not an integer")
	}
	var score int
	if err := json.Unmarshal(trimmed, &score); err != nil {
		return 0, newError(KindValidation, err, "AI response 'relevance_score' is not an integer")
	}
	if score < 0 || score > 100 {
		return 0, newError(KindValidation, nil, "AI response 'relevance_score' %d is out of range 0-100", score)
	}
	return score, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeStrict 与 json.Unmarshal 相同，但拒绝 null
func decodeStrict(raw json.RawMessage, v any) error {
	if isNull(raw) {
		return &json.UnmarshalTypeError{Value: "null"}
	}
	return json.Unmarshal(raw, v)
}
