package processor

import (
	"context"
	"strings"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/metrics"
)

// CoverLetterInput 求职信分析输入，文件提取出的文本优先于直接粘贴的文本
type CoverLetterInput struct {
	JobDescription string
	JobFile        *Upload
	ResumeText     string
	ResumeFile     *Upload
}

// KeyPoint 求职信要点
type KeyPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TipsBand 按分数段给出的求职信建议
type TipsBand struct {
	Band      string     `json:"band"`
	Strategy  string     `json:"strategy"`
	Headline  string     `json:"headline"`
	Tips      []string   `json:"tips"`
	KeyPoints []KeyPoint `json:"key_points"`
}

// CoverLetterReport 分析结果和建议，不落库
type CoverLetterReport struct {
	Result *analyzer.Result `json:"result"`
	Tips   TipsBand         `json:"tips"`
}

var coverLetterKeyPoints = []KeyPoint{
	{"Compelling Opening", "Reference the specific position and grab attention immediately"},
	{"Keyword Integration", "Naturally incorporate important terms from the job description"},
	{"Storytelling", "Use specific examples and narratives to illustrate your points"},
	{"Company Research", "Show you've done your homework about the organization"},
	{"Call to Action", "End with enthusiasm for next steps and clear contact information"},
	{"Professional Tone", "Match the company's communication style and culture"},
}

// TipsForScore >=80 Strong Match, >=65 Good Match, 其余 Developing Match
func TipsForScore(score int) TipsBand {
	var band TipsBand
	switch {
	case score >= 80:
		band = TipsBand{
			Band:     "Strong Match",
			Strategy: "Strong Match Strategy",
			Headline: "Your profile aligns excellently with this role!",
			Tips: []string{
				"Lead with your most impressive and relevant achievements",
				"Use specific metrics and quantifiable results",
				"Show genuine enthusiasm for the company's mission and values",
				"Demonstrate knowledge of recent company developments or industry trends",
				"Position yourself as someone who can make an immediate impact",
			},
		}
	case score >= 65:
		band = TipsBand{
			Band:     "Good Match",
			Strategy: "Good Match Strategy",
			Headline: "You have a solid foundation - focus on bridging any gaps!",
			Tips: []string{
				"Address skill gaps by highlighting related or transferable experience",
				"Emphasize your learning agility and adaptability",
				"Show specific examples of how you've quickly mastered new skills",
				"Express genuine interest in developing the missing competencies",
				"Highlight unique perspectives or experiences you bring",
			},
		}
	default:
		band = TipsBand{
			Band:     "Developing Match",
			Strategy: "Growth-Focused Strategy",
			Headline: "Focus on your potential, passion, and unique value!",
			Tips: []string{
				"Emphasize your eagerness to learn and grow in this field",
				"Highlight relevant projects, coursework, or self-directed learning",
				"Show how your diverse background brings fresh perspectives",
				"Demonstrate genuine passion for the industry or role",
				"Provide examples of how you've successfully tackled challenges outside your comfort zone",
			},
		}
	}
	band.KeyPoints = append([]KeyPoint(nil), coverLetterKeyPoints...)
	return band
}

// AnalyzeCoverLetter 无状态分析：不创建岗位和候选人
func (s *Service) AnalyzeCoverLetter(ctx context.Context, in CoverLetterInput) (*CoverLetterReport, error) {
	jd, err := s.pickText(ctx, "analyze_cover_letter", in.JobDescription, in.JobFile)
	if err != nil {
		return nil, err
	}
	if jd == "" {
		return nil, newInputError("analyze_cover_letter", "岗位描述不能为空")
	}
	resume, err := s.pickText(ctx, "analyze_cover_letter", in.ResumeText, in.ResumeFile)
	if err != nil {
		return nil, err
	}
	if resume == "" {
		return nil, newInputError("analyze_cover_letter", "简历内容不能为空")
	}

	result, err := s.analyzer.Analyze(ctx, jd, resume)
	metrics.ObserveAnalysis(result != nil && result.Fallback, err)
	if err != nil {
		return nil, err
	}
	return &CoverLetterReport{Result: result, Tips: TipsForScore(result.RelevanceScore)}, nil
}

// pickText 有文件时用文件文本，文件无法提取且没有粘贴文本时报错
func (s *Service) pickText(ctx context.Context, op, text string, file *Upload) (string, error) {
	text = strings.TrimSpace(text)
	if file == nil || len(file.Data) == 0 {
		return text, nil
	}
	extracted, err := s.extractUpload(ctx, op, file)
	if err != nil {
		if text != "" {
			s.logger.Warn().Err(err).Str("file", file.Filename).Msg("文件提取失败，使用粘贴文本")
			return text, nil
		}
		return "", err
	}
	return extracted, nil
}
